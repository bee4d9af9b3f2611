package storage

// Package storage is racebot's SQLite persistence layer.
//
// One record per entity key, with uniqueness enforced by the schema:
//   - contents:        UNIQUE(event_id, kind, lang)
//   - bingo_templates: PRIMARY KEY(event_id, lang)
//   - bingo_states:    PRIMARY KEY(event_id, recipient_id)
//
// Single-key updates use ON CONFLICT upserts so a logical read/modify/write
// resolves to one atomic statement per key.
