package models

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type OptionCatalog struct {
	Occasions    []Option          `json:"occasions"`
	Genders      []Option          `json:"genders"`
	Generations  []Option          `json:"generations"`
	BodyTypes    []Option          `json:"body_types"`
	Complexions  []Option          `json:"complexions"`
	Fabrics      []Option          `json:"fabrics"`
	QuickPicks   []string          `json:"quick_pick_regions"`
	Defaults     PreferenceProfile `json:"defaults"`
	Swatches     map[string]string `json:"complexion_swatches"`
	AspectRatio  string            `json:"illustration_aspect_ratio"`
	MaxPhotoSize int64             `json:"max_photo_bytes"`
}

var occasionLabels = map[Occasion]string{
	OccasionCasual:  "Casual",
	OccasionOffice:  "Office",
	OccasionParty:   "Party",
	OccasionWedding: "Wedding",
	OccasionDate:    "Date Night",
	OccasionGym:     "Gym",
}

var genderLabels = map[Gender]string{
	GenderMale:      "Male",
	GenderFemale:    "Female",
	GenderNonBinary: "Non-Binary",
}

var generationLabels = map[Generation]string{
	GenerationAlpha:      "Gen Alpha",
	GenerationGenZ:       "Gen Z",
	GenerationMillennial: "Millennial",
	GenerationGenX:       "Gen X",
}

var bodyTypeLabels = map[BodyType]string{
	BodyTypeSlim:     "Slim",
	BodyTypeAthletic: "Athletic",
	BodyTypeAverage:  "Average",
	BodyTypeCurvy:    "Curvy",
	BodyTypePlusSize: "Plus Size",
}

var complexionLabels = map[Complexion]string{
	ComplexionFair:   "Fair",
	ComplexionMedium: "Medium",
	ComplexionOlive:  "Olive",
	ComplexionTan:    "Tan",
	ComplexionDeep:   "Deep",
}

var complexionSwatches = map[string]string{
	string(ComplexionFair):   "#F5E1D2",
	string(ComplexionMedium): "#E0AC69",
	string(ComplexionOlive):  "#C68642",
	string(ComplexionTan):    "#8D5524",
	string(ComplexionDeep):   "#3D2210",
}

var fabricLabels = map[Fabric]string{
	FabricCotton:    "Cotton (Breathable)",
	FabricLinen:     "Linen (Lightweight)",
	FabricSilk:      "Silk (Luxurious)",
	FabricWool:      "Wool (Warm)",
	FabricDenim:     "Denim (Durable)",
	FabricSynthetic: "Synthetic (Performance)",
}

func optionsOf[T ~string](values []T, labels map[T]string) []Option {
	out := make([]Option, 0, len(values))
	for _, v := range values {
		out = append(out, Option{Value: string(v), Label: labels[v]})
	}
	return out
}

func NewOptionCatalog(quickPicks []string, aspectRatio string, maxPhotoSize int64) OptionCatalog {
	return OptionCatalog{
		Occasions:    optionsOf(Occasions, occasionLabels),
		Genders:      optionsOf(Genders, genderLabels),
		Generations:  optionsOf(Generations, generationLabels),
		BodyTypes:    optionsOf(BodyTypes, bodyTypeLabels),
		Complexions:  optionsOf(Complexions, complexionLabels),
		Fabrics:      optionsOf(Fabrics, fabricLabels),
		QuickPicks:   quickPicks,
		Defaults:     DefaultProfile(),
		Swatches:     complexionSwatches,
		AspectRatio:  aspectRatio,
		MaxPhotoSize: maxPhotoSize,
	}
}
