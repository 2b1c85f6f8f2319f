/*
Package operation implements the tree walk and in-place rewrite behind retarget.

	+-------------+
	|   Prepare   |
	| (ip, rules) |
	+------+------+
	       |
	+------+------+
	|    Walk     |
	|  (prune,    |
	|   filter)   |
	+------+------+
	       |
	+------+------+
	|  Rewrite /  |
	|   Check /   |
	|   Restore   |
	+-------------+

🎯 Purpose:
- Prepare resolves the target address once and expands every rule
- Walk selects candidate files per root, never entering excluded directories
- Rewrite decodes each candidate with the fallback chain, applies rules in
  order and writes canonical UTF-8 only when the text changed
- Check does the same without writing
- Restore puts <file>.retarget.bak backups back

🔄 Flow:
1. Roots are processed in configured order; a missing root is a warning
2. Each file is read, decoded, replaced and maybe written, one at a time
3. Per-file failures are reported and recorded, the run keeps going
4. A summary, optional table and optional report close the run

🤝 Interfaces:
- StatusManager: file I/O and outcome tracking (pkg/status)
- text.TextReplacer: rule application (pkg/text)
- Resolver: address discovery (pkg/hostip)

🔍 Example:

	plan, err := operation.Prepare(ctx, cfg, nil)
	if err != nil {
		return err
	}
	op := operation.NewRewriteOperation(operation.Options{
		Config:    cfg,
		Plan:      plan,
		StatusMgr: status.New(".", zerolog.Ctx(ctx)),
		Console:   console,
	})
	err = operation.NewRunner(zerolog.Ctx(ctx), false).Run(ctx, op)
*/
package operation
