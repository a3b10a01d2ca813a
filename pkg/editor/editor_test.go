// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package editor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// 🔧 MockRunner is a mock implementation of Runner
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Output(ctx context.Context, name string, args []string) ([]byte, error) {
	result := m.Called(ctx, name, args)
	out, _ := result.Get(0).([]byte)
	return out, result.Error(1)
}

func (m *MockRunner) Interactive(ctx context.Context, name string, args []string) error {
	return m.Called(ctx, name, args).Error(0)
}

func (m *MockRunner) LookPath(name string) (string, error) {
	result := m.Called(name)
	return result.String(0), result.Error(1)
}

func envFrom(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		override   string
		env        map[string]string
		gitOut     []byte
		gitErr     error
		wantArgs   []string
		wantSource string
	}{
		{
			name:       "override_wins",
			override:   "nano -w",
			env:        map[string]string{"VISUAL": "code --wait"},
			wantArgs:   []string{"nano", "-w"},
			wantSource: "override",
		},
		{
			name:       "visual_before_editor",
			env:        map[string]string{"VISUAL": "code  --wait", "EDITOR": "vim"},
			wantArgs:   []string{"code", "--wait"},
			wantSource: "$VISUAL",
		},
		{
			name:       "blank_values_skipped",
			env:        map[string]string{"VISUAL": "   ", "EDITOR": "", "GIT_EDITOR": "emacs -nw"},
			wantArgs:   []string{"emacs", "-nw"},
			wantSource: "$GIT_EDITOR",
		},
		{
			name:       "git_config",
			gitOut:     []byte("hx --config x.toml\x00"),
			wantArgs:   []string{"hx", "--config", "x.toml"},
			wantSource: "git config core.editor",
		},
		{
			name:       "git_config_unset",
			gitOut:     nil,
			gitErr:     errors.New("exit status 1"),
			wantArgs:   []string{DefaultEditor},
			wantSource: "default",
		},
		{
			name:       "git_config_empty",
			gitOut:     []byte("\x00"),
			wantArgs:   []string{DefaultEditor},
			wantSource: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &MockRunner{}
			runner.On("Output", mock.Anything, "git", []string{"config", "--null", "core.editor"}).
				Return(tt.gitOut, tt.gitErr).Maybe()

			cmd, err := Resolve(context.Background(), Sources{
				Override: tt.override,
				Getenv:   envFrom(tt.env),
				Runner:   runner,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantArgs, cmd.Args())
			assert.Equal(t, tt.wantSource, cmd.Source())
			runner.AssertExpectations(t)
		})
	}
}

func TestCommand_Immutable(t *testing.T) {
	cmd, err := NewCommand("vim", "-n")
	require.NoError(t, err)

	args := cmd.Args()
	args[0] = "emacs"
	assert.Equal(t, []string{"vim", "-n"}, cmd.Args())
	assert.Equal(t, "vim -n", cmd.String())

	_, err = NewCommand()
	require.Error(t, err)
}

func TestBridge_Edit(t *testing.T) {
	dir := t.TempDir()
	cmd, err := NewCommand("myeditor", "--wait")
	require.NoError(t, err)

	t.Run("returns_saved_document", func(t *testing.T) {
		runner := &MockRunner{}
		runner.On("LookPath", "myeditor").Return("/usr/bin/myeditor", nil)

		var scratch string
		runner.On("Interactive", mock.Anything, "/usr/bin/myeditor", mock.Anything).
			Run(func(args mock.Arguments) {
				argv := args.Get(2).([]string)
				require.Len(t, argv, 2)
				assert.Equal(t, "--wait", argv[0])
				scratch = argv[1]

				got, err := os.ReadFile(scratch)
				require.NoError(t, err)
				assert.Equal(t, "before\n", string(got))

				info, err := os.Stat(scratch)
				require.NoError(t, err)
				assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

				require.NoError(t, os.WriteFile(scratch, []byte("after\n"), 0o600))
			}).
			Return(nil)

		out, err := NewBridge(cmd, runner).WithScratchDir(dir).Edit(context.Background(), []byte("before\n"))
		require.NoError(t, err)
		assert.Equal(t, "after\n", string(out))

		_, err = os.Stat(scratch)
		assert.True(t, os.IsNotExist(err), "scratch file must be removed")
		runner.AssertExpectations(t)
	})

	t.Run("editor_missing", func(t *testing.T) {
		runner := &MockRunner{}
		runner.On("LookPath", "myeditor").Return("", errors.New("not found"))

		_, err := NewBridge(cmd, runner).WithScratchDir(dir).Edit(context.Background(), []byte("x"))
		var eerr *Error
		require.ErrorAs(t, err, &eerr)
		assert.Equal(t, -1, eerr.ExitCode)
		runner.AssertNotCalled(t, "Interactive", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("editor_fails", func(t *testing.T) {
		runner := &MockRunner{}
		runner.On("LookPath", "myeditor").Return("/usr/bin/myeditor", nil)
		runner.On("Interactive", mock.Anything, "/usr/bin/myeditor", mock.Anything).Return(errors.New("boom"))

		_, err := NewBridge(cmd, runner).WithScratchDir(dir).Edit(context.Background(), []byte("x"))
		var eerr *Error
		require.ErrorAs(t, err, &eerr)
		assert.Equal(t, "myeditor --wait", eerr.Command)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "scratch file must be removed on failure")
	})
}

func TestExecRunner_Interactive(t *testing.T) {
	sh, err := (&ExecRunner{}).LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	out := filepath.Join(t.TempDir(), "out")
	r := &ExecRunner{}
	require.NoError(t, r.Interactive(context.Background(), sh, []string{"-c", "printf hi > " + out}))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(got))

	err = runFailingEditor(t, sh)
	var eerr *Error
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, 3, eerr.ExitCode)
}

// runFailingEditor runs a bridge whose editor exits with status 3.
func runFailingEditor(t *testing.T, sh string) error {
	t.Helper()
	cmd, err := NewCommand(sh, "-c", "exit 3", "editor")
	require.NoError(t, err)
	_, err = NewBridge(cmd, &ExecRunner{}).WithScratchDir(t.TempDir()).Edit(context.Background(), []byte("x"))
	return err
}
