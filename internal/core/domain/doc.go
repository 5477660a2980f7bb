// Package domain contains the core business entities of the skusync
// pipeline: the canonical product record and its composite business key,
// the staging row shape, the ETL watermark, the change log, and the
// deterministic data-version serialiser. It has no I/O dependencies.
package domain
