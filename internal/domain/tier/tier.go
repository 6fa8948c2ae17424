package tier

// Tier is a cost/capability class of language model.
type Tier string

// Model tier constants.
const (
	// Standard is the cheap, fast tier for routine turns.
	Standard Tier = "standard"
	// Advanced is the more capable, more expensive tier for synthesis-heavy turns.
	Advanced Tier = "advanced"
)

// IsValid checks if the tier is one of the supported values.
func (t Tier) IsValid() bool {
	return t == Standard || t == Advanced
}
