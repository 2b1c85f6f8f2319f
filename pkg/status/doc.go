/*
Package status manages file storage and outcome tracking for retarget.

	            +-------------+
	            |   Manager   |
	            +------+------+
	                   |
	      +------------+------------+
	      |                         |
	+-----+------+           +------+------+
	|   Files    |           |   Tracking  |
	| (atomic IO)|           | (summary,   |
	|  backups   |           |   report)   |
	+------------+           +-------------+

🎯 Purpose:
- Reads and atomically rewrites files (temp file + rename, mode kept)
- Keeps optional <file>.retarget.bak backups and restores them
- Records one FileStatus per processed file
- Totals a Summary and writes the optional JSON/YAML run report

🤝 Interfaces:
- FileManager: file system operations
- StatusReporter: outcome tracking and progress
- FileFormatter: debug log messages for tracked files

Nothing here is read back on the next run. Reports and backups are
outputs only.

🔍 Example:

	mgr := status.New(".", zerolog.Ctx(ctx))

	content, err := mgr.ReadFile(ctx, path)
	...
	err = mgr.WriteFileAtomic(ctx, path, updated)
	mgr.TrackFile(ctx, path, status.FileInfo{Status: status.StatusModified, Replacements: 2})

	summary := mgr.Summary(ctx)
*/
package status
