package mikrotik

import (
	"strconv"
	"strings"

	"linkpulse/internal/core/domain"
)

// parseQueue converts one /queue/simple/print sentence into a counter set.
func parseQueue(attrs map[string]string) domain.QueueCounters {
	rxRate, txRate := parsePair(attrs["rate"])
	rxBytes, txBytes := parsePair(attrs["bytes"])
	rxPackets, txPackets := parsePair(attrs["packets"])

	return domain.QueueCounters{
		Queue:     attrs["name"],
		RxRate:    rxRate,
		TxRate:    txRate,
		RxBytes:   rxBytes,
		TxBytes:   txBytes,
		RxPackets: rxPackets,
		TxPackets: txPackets,
	}
}

// parsePair splits a RouterOS "rx/tx" counter pair. Tokens that do not parse
// as numbers count as zero; a missing separator leaves the tx side at zero.
// Parsing is total, it never fails.
func parsePair(s string) (rx, tx int64) {
	left, right, found := strings.Cut(s, "/")
	rx = parseToken(left)
	if found {
		tx = parseToken(right)
	}
	return rx, tx
}

func parseToken(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
