package schema

import _ "embed"

// RaceV1Schema contains the JSON schema for race manifests.
//
//go:embed race.v1.json
var RaceV1Schema []byte
