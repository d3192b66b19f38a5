package aggregation

import "perfvoi/internal/models"

func resultOf(m Match) models.ScalarResult {
	return models.ScalarResult{Subject: m.Subject, RegionFolder: m.Region, Label: m.Label, Path: m.Path}
}

func longKey(subject, region string) models.LongKey {
	return models.LongKey{Subject: subject, Region: region}
}
