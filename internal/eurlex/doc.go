// Package eurlex implements the EUR-Lex harvesting engine, including the
// discovery strategies, listing paginator, result and metadata parsers,
// dedup registry, detail worker pool, and orchestrator used by the
// lexharvest binary.
package eurlex
