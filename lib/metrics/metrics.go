// Package metrics declares the prometheus counters/gauges published by the
// decoder core. HTTP exposition is a collaborator's job (§1); this package
// only registers and updates the series.
//
// Grounded on the teacher's lib/setup/source.go, which registers
// pw_ingest_input_*_total counters at package init via promauto the same
// way.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesDecoded counts successfully CRC-validated, decoded frames, by
	// downlink format.
	FramesDecoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adsbcore_frames_decoded_total",
		Help: "Total frames successfully decoded, labelled by downlink format.",
	}, []string{"df"})

	// FramesRejected counts frames that failed CRC validation and could not
	// be corrected, per §7's CRCMismatch error, plus CRC-valid frames the
	// frame decoder could not parse.
	FramesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adsbcore_frames_rejected_total",
		Help: "Total frames dropped after CRC validation or frame decoding failed.",
	})

	// FramesCorrected counts frames repaired by the CRC engine's 1/2-bit
	// correction tables.
	FramesCorrected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adsbcore_frames_corrected_total",
		Help: "Total frames repaired by CRC bit-error correction.",
	})

	// SamplesDropped counts magnitude samples discarded by ingest
	// back-pressure (§5).
	SamplesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adsbcore_samples_dropped_total",
		Help: "Total I/Q samples dropped due to ring buffer back-pressure.",
	})

	// AircraftTracked is a live gauge of tracked records, including ghosts.
	AircraftTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "adsbcore_aircraft_tracked",
		Help: "Current number of tracked aircraft records, including ghosts below the visibility threshold.",
	})

	// AircraftEvicted counts TTL sweep evictions.
	AircraftEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adsbcore_aircraft_evicted_total",
		Help: "Total aircraft records evicted by the TTL sweep.",
	})

	// CPRZoneMismatches counts discarded even/odd pairs per §7's
	// CPRZoneMismatch error.
	CPRZoneMismatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adsbcore_cpr_zone_mismatch_total",
		Help: "Total even/odd CPR pairs discarded for straddling a latitude zone boundary.",
	})

	// BDSInconsistent counts Comm-B MB blocks that no candidate register
	// classified, per §7's BDSInconsistent error.
	BDSInconsistent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adsbcore_bds_inconsistent_total",
		Help: "Total Comm-B MB blocks that failed every BDS register's sanity check.",
	})
)
