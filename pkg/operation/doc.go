/*
Package operation runs a search and replace from end to end.

	+--------+    +--------+    +--------+    +---------+
	|  Walk  | -> | Stream | -> | Review | -> | Summary |
	+--------+    +--------+    +---+----+    +---------+
	                                |
	                           +----+----+
	                           | Commit  |
	                           +---------+

🎯 Purpose:
  - Expand the command line paths into candidate files
  - Search them in parallel and report files that cannot be read
  - Hand each file with matches to the reviewer, in walk order
  - Print the per-file summary once review ends

Files that cannot be searched are reported and skipped; the rest are still
reviewed. Execute then fails with ErrLocateFailed unless IgnoreErrors is set.

🔍 Example:

	op, err := operation.NewReplaceOperation(operation.Options{
		Paths:    []string{"."},
		Locator:  loc,
		Replacer: rep,
		Reviewer: session,
	})
	ctx = log.NewContext(ctx, log.New(os.Stdout, logger))
	err = operation.NewRunner(&logger, os.Interrupt).Run(ctx, op)
*/
package operation
