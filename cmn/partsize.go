// Package cmn provides constants, validators, and wire-encoding helpers
// shared by the s3core client packages.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package cmn

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// PartPlan is the multipart partitioning of an object of known size.
type PartPlan struct {
	PartSize     int64
	PartCount    int
	LastPartSize int64
}

// CalculatePartPlan partitions size bytes into at most MaxMultipartCount
// parts, each a multiple of MinPartSize except possibly the last.
func CalculatePartPlan(size int64) (PartPlan, error) {
	if size < 0 {
		return PartPlan{}, fmt.Errorf("object size cannot be negative")
	}
	if size > MaxObjectSize {
		return PartPlan{}, fmt.Errorf("object size %s exceeds maximum %s",
			humanize.IBytes(uint64(size)), humanize.IBytes(MaxObjectSize))
	}
	partSize := ceilDiv(size, MaxMultipartCount)
	partSize = ceilDiv(partSize, MinPartSize) * MinPartSize
	if partSize == 0 {
		partSize = MinPartSize
	}
	partCount := ceilDiv(size, partSize)
	if partCount == 0 {
		partCount = 1
	}
	lastPartSize := partSize - (partSize*partCount - size)
	if lastPartSize == 0 {
		lastPartSize = partSize
	}
	return PartPlan{PartSize: partSize, PartCount: int(partCount), LastPartSize: lastPartSize}, nil
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
