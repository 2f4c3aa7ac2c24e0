package catalog

import _ "embed"

// Credit cost catalog for the metered RPC API.
// The file mirrors the provider's published credit schedule.

//go:embed data/catalog.json
var rawCatalogJSON []byte
