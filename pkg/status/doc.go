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

/*
Package status tracks what happened to every file a run reviewed.

	+-----------+     Record      +-----------+     Summary     +---------+
	|  review   | --------------> |  Manager  | --------------> | console |
	|  session  |                 | (outcomes)|                 | (pterm) |
	+-----------+                 +-----------+                 +---------+

🎯 Purpose:
  - One Outcome per reviewed file: how many hunks were offered, how many were
    written, and the error that stopped the commit, if any.
  - A closing summary so the operator can see which files changed and which
    edits were lost.

🤝 Interfaces:
  - Recorder: what the review session needs.
  - FileFormatter: one-line rendering of an outcome.
*/
package status
