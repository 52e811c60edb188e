package avatar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultRig is used when a request names none.
const DefaultRig = "default"

// Request describes one avatar to spawn.
type Request struct {
	Name       string             `json:"name"`
	Morphs     map[string]float64 `json:"morph_targets"`
	Rig        string             `json:"rig,omitempty"`
	BodyParts  []string           `json:"body_parts"`
	Equipment  []string           `json:"equipment"`
	SkinAlbedo string             `json:"skin_albedo,omitempty"`
	HairColor  *[3]float64        `json:"hair_color,omitempty"` // linear RGB tint for hair assets

	// Spawn placement: translation, then yaw in degrees about +Y.
	Translation [3]float64 `json:"translation"`
	Yaw         float64    `json:"yaw"`
}

// RigName returns the requested rig or DefaultRig.
func (r Request) RigName() string {
	if r.Rig == "" {
		return DefaultRig
	}
	return r.Rig
}

// Transform returns the spawn transform.
func (r Request) Transform() mgl64.Mat4 {
	t := mgl64.Translate3D(r.Translation[0], r.Translation[1], r.Translation[2])
	if r.Yaw == 0 {
		return t
	}
	return t.Mul4(mgl64.HomogRotate3DY(mgl64.DegToRad(r.Yaw)))
}

// LoadRequests reads a JSON file holding one request object or an array of
// them. Requests without a name are named after their position.
func LoadRequests(path string) ([]Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("avatar: read %s: %w", path, err)
	}

	var reqs []Request
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var one Request
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, fmt.Errorf("avatar: parse %s: %w", path, err)
		}
		reqs = []Request{one}
	} else if err := json.Unmarshal(data, &reqs); err != nil {
		return nil, fmt.Errorf("avatar: parse %s: %w", path, err)
	}

	for i := range reqs {
		if reqs[i].Name == "" {
			reqs[i].Name = fmt.Sprintf("avatar%03d", i)
		}
	}
	return reqs, nil
}
