package jobs

// DefaultTemplate is the report layout submitted when the caller uploads
// no template of their own. Shape matches the question templates the
// backend generates: section name to description/order/questions.
func DefaultTemplate() map[string]any {
	return map[string]any{
		"Executive Summary": map[string]any{
			"description": "High-level summary of the compliance posture for the analyzed workload.",
			"order":       1,
			"questions":   []string{},
		},
		"Regulatory Scope": map[string]any{
			"description": "Applicable regulations, supervisory authorities and territorial scope.",
			"order":       2,
			"questions":   []string{},
		},
		"Control Requirements": map[string]any{
			"description": "Technical and organizational controls the regulation mandates.",
			"order":       3,
			"questions":   []string{},
		},
		"Findings and Gaps": map[string]any{
			"description": "Identified gaps between the workload design and the regulatory requirements.",
			"order":       4,
			"questions":   []string{},
		},
		"Recommendations": map[string]any{
			"description": "Remediation steps ordered by severity.",
			"order":       5,
			"questions":   []string{},
		},
	}
}
