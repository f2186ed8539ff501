package models

// MoodGroup is an emoji catalog group the analysis maps a mood onto.
type MoodGroup string

const (
	GroupFacePositive    MoodGroup = "face positive"
	GroupFaceNeutral     MoodGroup = "face neutral"
	GroupFaceNegative    MoodGroup = "face negative"
	GroupFaceRole        MoodGroup = "face role"
	GroupFaceSick        MoodGroup = "face sick"
	GroupCreatureFace    MoodGroup = "creature face"
	GroupCatFace         MoodGroup = "cat face"
	GroupMonkeyFace      MoodGroup = "monkey face"
	GroupPerson          MoodGroup = "person"
	GroupPersonRole      MoodGroup = "person role"
	GroupPersonGesture   MoodGroup = "person gesture"
	GroupPersonActivity  MoodGroup = "person activity"
	GroupFamily          MoodGroup = "family"
	GroupSkinTone        MoodGroup = "skin tone"
	GroupBody            MoodGroup = "body"
	GroupEmotion         MoodGroup = "emotion"
	GroupClothing        MoodGroup = "clothing"
	GroupAnimalMammal    MoodGroup = "animal mammal"
	GroupAnimalBird      MoodGroup = "animal bird"
	GroupAnimalAmphibian MoodGroup = "animal amphibian"
	GroupAnimalReptile   MoodGroup = "animal reptile"
	GroupAnimalMarine    MoodGroup = "animal marine"
	GroupAnimalBug       MoodGroup = "animal bug"
	GroupPlantFlower     MoodGroup = "plant flower"
	GroupPlantOther      MoodGroup = "plant other"
	GroupFoodFruit       MoodGroup = "food fruit"
	GroupFoodVegetable   MoodGroup = "food vegetable"
	GroupFoodPrepared    MoodGroup = "food prepared"
	GroupFoodAsian       MoodGroup = "food asian"
	GroupFoodSweet       MoodGroup = "food sweet"
	GroupDrink           MoodGroup = "drink"
	GroupDishware        MoodGroup = "dishware"
	GroupTravelAndPlaces MoodGroup = "travel and places"
	GroupActivities      MoodGroup = "activities"
	GroupObjects         MoodGroup = "objects"
	GroupSymbols         MoodGroup = "symbols"
	GroupFlags           MoodGroup = "flags"
)

// MoodGroups lists every group in catalog order. The prompt enumerates
// them in this order.
var MoodGroups = []MoodGroup{
	GroupFacePositive, GroupFaceNeutral, GroupFaceNegative, GroupFaceRole,
	GroupFaceSick, GroupCreatureFace, GroupCatFace, GroupMonkeyFace,
	GroupPerson, GroupPersonRole, GroupPersonGesture, GroupPersonActivity,
	GroupFamily, GroupSkinTone, GroupBody, GroupEmotion, GroupClothing,
	GroupAnimalMammal, GroupAnimalBird, GroupAnimalAmphibian, GroupAnimalReptile,
	GroupAnimalMarine, GroupAnimalBug, GroupPlantFlower, GroupPlantOther,
	GroupFoodFruit, GroupFoodVegetable, GroupFoodPrepared, GroupFoodAsian,
	GroupFoodSweet, GroupDrink, GroupDishware, GroupTravelAndPlaces,
	GroupActivities, GroupObjects, GroupSymbols, GroupFlags,
}

var validMoodGroups = func() map[MoodGroup]bool {
	m := make(map[MoodGroup]bool, len(MoodGroups))
	for _, g := range MoodGroups {
		m[g] = true
	}
	return m
}()

func (g MoodGroup) IsValid() bool {
	return validMoodGroups[g]
}

// DefaultMoodGroup is used for the startup emoji.
const DefaultMoodGroup = GroupFacePositive

// Animation is the motion applied to the mood emoji.
type Animation string

const (
	AnimationRotation Animation = "rotation"
	AnimationZoom     Animation = "zoom"
	AnimationShake    Animation = "shake"
	AnimationBounce   Animation = "bounce"
	AnimationPulse    Animation = "pulse"
	AnimationWiggle   Animation = "wiggle"
	AnimationNone     Animation = "none"
)

var ValidAnimations = map[Animation]bool{
	AnimationRotation: true,
	AnimationZoom:     true,
	AnimationShake:    true,
	AnimationBounce:   true,
	AnimationPulse:    true,
	AnimationWiggle:   true,
	AnimationNone:     true,
}

func (a Animation) IsValid() bool {
	return ValidAnimations[a]
}

// Language selects the language of generated text.
type Language string

const (
	LanguageFR Language = "fr"
	LanguageEN Language = "en"
)

const DefaultLanguage = LanguageFR

func (l Language) IsValid() bool {
	return l == LanguageFR || l == LanguageEN
}

// ModelInfo describes a selectable LLM model.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

const DefaultModel = "gemini-2.0-flash-lite"

var SupportedModels = []ModelInfo{
	{ID: "gemini-2.0-flash-lite", Name: "Gemini 2.0 Flash Lite", Description: "Fast and lightweight"},
	{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", Description: "Balanced speed and quality"},
	{ID: "gemini-2.0-flash-exp", Name: "Gemini 2.0 Flash Experimental", Description: "Experimental features"},
	{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Description: "Most capable"},
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Description: "Fast with strong reasoning"},
	{ID: "gemini-2.5-flash-lite", Name: "Gemini 2.5 Flash Lite", Description: "Cheapest 2.5 model"},
}

// IsSupportedModel reports whether id appears in SupportedModels.
func IsSupportedModel(id string) bool {
	for _, m := range SupportedModels {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Layer names one of the two background layers.
type Layer string

const (
	LayerCurrent Layer = "current"
	LayerPrev    Layer = "prev"
)

const (
	RequiredColorCount = 4
	MinIntensity       = 1
	MaxIntensity       = 10
	MaxMessageLength   = 500
	FallbackEmoji      = "🙂"
)
