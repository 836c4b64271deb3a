// Package cmn provides constants, validators, and wire-encoding helpers
// shared by the s3core client packages.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package cmn

import "testing"

func TestCalculatePartPlan(t *testing.T) {
	sizes := []int64{
		1,
		MinPartSize,
		MinPartSize + 1,
		100 * 1024 * 1024,
		10 * 1024 * 1024 * 1024, // 10 GiB
		MaxObjectSize,
	}
	for _, size := range sizes {
		plan, err := CalculatePartPlan(size)
		if err != nil {
			t.Fatalf("size %d: %v", size, err)
		}
		if plan.PartSize%MinPartSize != 0 {
			t.Errorf("size %d: part size %d not a multiple of MinPartSize", size, plan.PartSize)
		}
		if plan.PartCount > MaxMultipartCount {
			t.Errorf("size %d: part count %d exceeds limit", size, plan.PartCount)
		}
		if plan.LastPartSize > plan.PartSize {
			t.Errorf("size %d: last part %d larger than part size %d", size, plan.LastPartSize, plan.PartSize)
		}
		total := int64(plan.PartCount-1)*plan.PartSize + plan.LastPartSize
		if total != size {
			t.Errorf("size %d: parts sum to %d", size, total)
		}
	}
}

func TestCalculatePartPlanTenGiB(t *testing.T) {
	// A 10 GiB object partitions into 2048 parts of 5 MiB.
	plan, err := CalculatePartPlan(10 * 1024 * 1024 * 1024)
	if err != nil {
		t.Fatal(err)
	}
	if plan.PartSize != MinPartSize || plan.PartCount != 2048 || plan.LastPartSize != MinPartSize {
		t.Errorf("unexpected plan %+v", plan)
	}
}

func TestCalculatePartPlanTooLarge(t *testing.T) {
	if _, err := CalculatePartPlan(MaxObjectSize + 1); err == nil {
		t.Error("size above 5 TiB must be rejected")
	}
	if _, err := CalculatePartPlan(-1); err == nil {
		t.Error("negative size must be rejected")
	}
}
