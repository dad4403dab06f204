// Package dedupe provides shared singleflight groups used to collapse
// concurrent identical reference lookups. Several battle sessions can
// ask for the same species, move or type chart at the same time; a
// centralized singleflight.Group ensures one query runs per key while
// the other callers wait for its result.
package dedupe

import "golang.org/x/sync/singleflight"

// DexGroup deduplicates reference store lookups keyed by kind and
// identifier (e.g. "species:garchomp", "chart").
var DexGroup singleflight.Group
