package detect

// Model profiles. Each profile carries its own mutually exclusive class
// vocabulary; the active one is selected by configuration at startup.
const (
	ProfileDOTA     = "dota"
	ProfileMilitary = "military"
	ProfileCOCO     = "coco"
)

var dotaHighRisk = []string{
	// military aircraft
	"plane", "helicopter",
	// naval
	"ship", "harbor",
	// large vehicles
	"large-vehicle",
	// strategic infrastructure
	"bridge",
}

var dotaMediumRisk = []string{
	"small-vehicle",
	"storage-tank", "ground-track-field",
	"baseball-diamond", "tennis-court", "basketball-court",
	"soccer-ball-field", "swimming-pool",
	"roundabout",
}

var militaryHighRisk = []string{
	// heavy armor and artillery
	"tank", "armored_vehicle", "missile_launcher", "artillery",
	"rocket_launcher", "anti_aircraft_gun",
	// airborne
	"fighter_jet", "attack_helicopter", "combat_drone",
	// naval
	"warship", "submarine",
}

var militaryMediumRisk = []string{
	"military_truck", "patrol_boat", "military_helicopter",
	"radar_station", "bunker",
	"recon_drone",
	"military_personnel",
	"runway", "helipad",
}

var cocoHighRisk = []string{
	"truck", "bus", "car", "airplane", "helicopter",
	"knife", "scissors",
}

var cocoMediumRisk = []string{
	"person", "backpack", "handbag", "boat", "train",
	"bicycle", "motorcycle",
}

// VocabularyFor resolves a model profile into its concrete risk vocabulary.
// Unknown profiles fall back to the generic COCO vocabulary.
func VocabularyFor(profile string) Vocabulary {
	switch profile {
	case ProfileDOTA:
		return NewVocabulary(dotaHighRisk, dotaMediumRisk)
	case ProfileMilitary:
		return NewVocabulary(militaryHighRisk, militaryMediumRisk)
	default:
		return NewVocabulary(cocoHighRisk, cocoMediumRisk)
	}
}
