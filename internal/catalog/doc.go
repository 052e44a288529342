// Package catalog merges bundled and acquired sounds into the single ordered list the mixer shows.
//
// Bundled sounds come from a TOML file laid out as one table per category:
//
//	base_path = "assets/sounds"
//
//	[Rain.heavy_rain]
//	name = "Heavy Rain"
//	file = "heavy_rain.ogg"
//	icon = "🌧"
//	url = "https://..."
//
// Acquired sounds are persisted through a [Store] and override bundled entries with the same id.
package catalog
