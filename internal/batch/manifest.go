package batch

import (
	"encoding/json"
	"os"
)

// ManifestEntry represents one avatar in the output manifest.
type ManifestEntry struct {
	Name      string   `json:"name"`
	Rig       string   `json:"rig"`
	BodyParts []string `json:"body_parts,omitempty"`
	Equipment []string `json:"equipment,omitempty"`
	Model     string   `json:"model"`
	Image     string   `json:"image,omitempty"`
}

// WriteManifest writes manifest.json listing the successful results.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, 0, len(results))
	for _, r := range results {
		if !r.Success {
			continue
		}
		entries = append(entries, ManifestEntry{
			Name:      r.Name,
			Rig:       r.Request.RigName(),
			BodyParts: r.Request.BodyParts,
			Equipment: r.Request.Equipment,
			Model:     r.GLB,
			Image:     r.Preview,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
