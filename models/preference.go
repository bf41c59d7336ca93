package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

type Occasion string

const (
	OccasionCasual  Occasion = "casual"
	OccasionOffice  Occasion = "office"
	OccasionParty   Occasion = "party"
	OccasionWedding Occasion = "wedding"
	OccasionDate    Occasion = "date"
	OccasionGym     Occasion = "gym"
)

var Occasions = []Occasion{OccasionCasual, OccasionOffice, OccasionParty, OccasionWedding, OccasionDate, OccasionGym}

type Gender string

const (
	GenderMale      Gender = "male"
	GenderFemale    Gender = "female"
	GenderNonBinary Gender = "non-binary"
)

var Genders = []Gender{GenderMale, GenderFemale, GenderNonBinary}

type Generation string

const (
	GenerationAlpha      Generation = "alpha"
	GenerationGenZ       Generation = "genz"
	GenerationMillennial Generation = "millennial"
	GenerationGenX       Generation = "genx"
)

var Generations = []Generation{GenerationAlpha, GenerationGenZ, GenerationMillennial, GenerationGenX}

type BodyType string

const (
	BodyTypeSlim     BodyType = "slim"
	BodyTypeAthletic BodyType = "athletic"
	BodyTypeAverage  BodyType = "average"
	BodyTypeCurvy    BodyType = "curvy"
	BodyTypePlusSize BodyType = "plus-size"
)

var BodyTypes = []BodyType{BodyTypeSlim, BodyTypeAthletic, BodyTypeAverage, BodyTypeCurvy, BodyTypePlusSize}

type Complexion string

const (
	ComplexionFair   Complexion = "fair"
	ComplexionMedium Complexion = "medium"
	ComplexionOlive  Complexion = "olive"
	ComplexionTan    Complexion = "tan"
	ComplexionDeep   Complexion = "deep"
)

var Complexions = []Complexion{ComplexionFair, ComplexionMedium, ComplexionOlive, ComplexionTan, ComplexionDeep}

type Fabric string

const (
	FabricCotton    Fabric = "cotton"
	FabricLinen     Fabric = "linen"
	FabricSilk      Fabric = "silk"
	FabricWool      Fabric = "wool"
	FabricDenim     Fabric = "denim"
	FabricSynthetic Fabric = "synthetic"
)

var Fabrics = []Fabric{FabricCotton, FabricLinen, FabricSilk, FabricWool, FabricDenim, FabricSynthetic}

func contains[T ~string](values []T, v string) bool {
	for _, candidate := range values {
		if string(candidate) == v {
			return true
		}
	}
	return false
}

func (o Occasion) Valid() bool   { return contains(Occasions, string(o)) }
func (g Gender) Valid() bool     { return contains(Genders, string(g)) }
func (g Generation) Valid() bool { return contains(Generations, string(g)) }
func (b BodyType) Valid() bool   { return contains(BodyTypes, string(b)) }
func (c Complexion) Valid() bool { return contains(Complexions, string(c)) }
func (f Fabric) Valid() bool     { return contains(Fabrics, string(f)) }

// Validators registered on the echo validator, one tag per enum.

func ValidateOccasion(fl validator.FieldLevel) bool {
	return Occasion(fl.Field().String()).Valid()
}

func ValidateGender(fl validator.FieldLevel) bool {
	return Gender(fl.Field().String()).Valid()
}

func ValidateGeneration(fl validator.FieldLevel) bool {
	return Generation(fl.Field().String()).Valid()
}

func ValidateBodyType(fl validator.FieldLevel) bool {
	return BodyType(fl.Field().String()).Valid()
}

func ValidateComplexion(fl validator.FieldLevel) bool {
	return Complexion(fl.Field().String()).Valid()
}

func ValidateFabric(fl validator.FieldLevel) bool {
	return Fabric(fl.Field().String()).Valid()
}

const DefaultCountryStyle = "Parisian Chic"

// PreferenceProfile is the full set of styling inputs for one session.
// Every enum field holds a valid value at all times; setters reject anything else.
type PreferenceProfile struct {
	Occasion     Occasion   `json:"occasion"`
	Gender       Gender     `json:"gender"`
	Generation   Generation `json:"generation"`
	BodyType     BodyType   `json:"body_type"`
	Complexion   Complexion `json:"complexion"`
	Fabric       Fabric     `json:"fabric"`
	CountryStyle string     `json:"country_style"`
	Weather      string     `json:"weather,omitempty"`
}

func DefaultProfile() PreferenceProfile {
	return PreferenceProfile{
		Occasion:     OccasionCasual,
		Gender:       GenderFemale,
		Generation:   GenerationGenZ,
		BodyType:     BodyTypeAverage,
		Complexion:   ComplexionMedium,
		Fabric:       FabricCotton,
		CountryStyle: DefaultCountryStyle,
	}
}

func invalidValue(field, value string) error {
	return WrapError(ErrInvalidValue, "set "+field, fmt.Errorf("%q is not a valid %s", value, field))
}

func (p PreferenceProfile) WithOccasion(v string) (PreferenceProfile, error) {
	if !Occasion(v).Valid() {
		return p, invalidValue("occasion", v)
	}
	p.Occasion = Occasion(v)
	return p, nil
}

func (p PreferenceProfile) WithGender(v string) (PreferenceProfile, error) {
	if !Gender(v).Valid() {
		return p, invalidValue("gender", v)
	}
	p.Gender = Gender(v)
	return p, nil
}

func (p PreferenceProfile) WithGeneration(v string) (PreferenceProfile, error) {
	if !Generation(v).Valid() {
		return p, invalidValue("generation", v)
	}
	p.Generation = Generation(v)
	return p, nil
}

func (p PreferenceProfile) WithBodyType(v string) (PreferenceProfile, error) {
	if !BodyType(v).Valid() {
		return p, invalidValue("body_type", v)
	}
	p.BodyType = BodyType(v)
	return p, nil
}

func (p PreferenceProfile) WithComplexion(v string) (PreferenceProfile, error) {
	if !Complexion(v).Valid() {
		return p, invalidValue("complexion", v)
	}
	p.Complexion = Complexion(v)
	return p, nil
}

func (p PreferenceProfile) WithFabric(v string) (PreferenceProfile, error) {
	if !Fabric(v).Valid() {
		return p, invalidValue("fabric", v)
	}
	p.Fabric = Fabric(v)
	return p, nil
}

// WithCountryStyle keeps the previous value when v is blank so the field never becomes empty.
func (p PreferenceProfile) WithCountryStyle(v string) PreferenceProfile {
	if strings.TrimSpace(v) == "" {
		return p
	}
	p.CountryStyle = v
	return p
}

func (p PreferenceProfile) WithWeather(v string) PreferenceProfile {
	p.Weather = v
	return p
}

// WithAnalysis overwrites body type, complexion and country style with the analysis result.
func (p PreferenceProfile) WithAnalysis(a PhotoAnalysisResult) PreferenceProfile {
	p.BodyType = a.BodyType
	p.Complexion = a.Complexion
	return p.WithCountryStyle(a.SuggestedStyle)
}

func (p PreferenceProfile) Validate() error {
	checks := []struct {
		field string
		value string
		ok    bool
	}{
		{"occasion", string(p.Occasion), p.Occasion.Valid()},
		{"gender", string(p.Gender), p.Gender.Valid()},
		{"generation", string(p.Generation), p.Generation.Valid()},
		{"body_type", string(p.BodyType), p.BodyType.Valid()},
		{"complexion", string(p.Complexion), p.Complexion.Valid()},
		{"fabric", string(p.Fabric), p.Fabric.Valid()},
	}
	for _, c := range checks {
		if !c.ok {
			return invalidValue(c.field, c.value)
		}
	}
	if strings.TrimSpace(p.CountryStyle) == "" {
		return WrapError(ErrInvalidValue, "validate profile", fmt.Errorf("country_style is empty"))
	}
	return nil
}
