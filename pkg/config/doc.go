// Package config resolves categories and builds the explicit run context
// passed through every backup and diff call.
//
// A built-in catalogue maps category names to absolute source paths. A YAML
// file may override the store root, global excludes, and any category:
//
//	root: /srv/snapshots
//	excludes: ["*.swp", "*.log"]
//	categories:
//	  web:
//	    paths: [/etc/nginx, /var/www/html]
//	    excludes: ["*/cache/*"]
//
// The generic category "all" is the union of every other category unless the
// file defines it explicitly.
package config
