/*
Package config manages configuration parsing and validation for retarget.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	     +-------------+-------------+
	     |             |             |
	+----+----+   +----+----+   +----+----+
	|  YAML   |   |  JSON   |   |   HCL   |
	| Parser  |   | Parser  |   | Parser  |
	+---------+   +---------+   +---------+

🎯 Purpose:
- Loads the scan roots, extension allow-list, excluded directories,
  encodings, discovery settings and replacement rules
- Applies defaults and normalizes values in Validate
- Layers command line Overrides on top of the file

🔄 Flow:
1. LoadOptional falls back to Default when no file exists
2. GetParser picks a parser by file name (.retarget tries YAML then HCL)
3. Validate fills defaults and rejects bad rules before any file is touched
4. ReplacementRules expands ${ip} and ${env.NAME} once discovery is done

🔍 Example:

	cfg, err := config.LoadOptional(ctx, ".retarget.yaml", false)
	if err != nil {
		return err
	}
	if err := cfg.Merge(config.Overrides{Roots: []string{"./app"}}); err != nil {
		return err
	}
	rules, err := cfg.ReplacementRules(text.Vars{IP: "10.0.0.5"})
*/
package config
