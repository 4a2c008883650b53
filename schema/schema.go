// Package schema has models, enums and formatting helpers shared by all parts of fundscore.
package schema
