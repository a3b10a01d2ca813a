// Package config loads repatch settings.
//
// 	+----------+   +-------------+   +-----------+   +---------+
// 	| defaults | < | config file | < | REPATCH_* | < |  flags  |
// 	+----------+   +------+------+   +-----------+   +---------+
// 	                      |
// 	       +--------------+--------------+
// 	       |              |              |
// 	 +-----+----+   +-----+----+   +-----+----+
// 	 |   YAML   |   |   HCL    |   |   JSON   |
// 	 |  Parser  |   |  Parser  |   |  Parser  |
// 	 +----------+   +----------+   +----------+
//
// 🎯 Purpose:
//   - Parse .repatch.yaml, .repatch.yml, .repatch.hcl or .repatch.json into a File
//   - Layer the File with defaults, environment and flags into Settings (viper)
//
// 🔍 Example config:
//
// 	# .repatch.yaml
// 	context_lines: 3
// 	editor: code --wait
// 	exclude:
// 	  - "**/testdata/**"
//
// HCL files can read the environment:
//
// 	editor  = env.REPATCH_EDITOR
// 	workers = 4
package config
