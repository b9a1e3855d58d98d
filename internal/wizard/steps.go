package wizard

import "strconv"

// Step - шаг мастера подачи заявки, от StepBasicInfo до StepPayment.
type Step int

const (
	StepBasicInfo Step = iota + 1
	StepFeatures
	StepPricing
	StepScreenshots
	StepContact
	StepPayment
)

const (
	FirstStep = StepBasicInfo
	LastStep  = StepPayment
)

// StepInfo описывает шаг для отображения и проверки.
type StepInfo struct {
	Step        Step   `json:"step"`
	Title       string `json:"title"`
	Description string `json:"description"`

	validate func(Draft, ValidationErrors)
}

var stepTable = [...]StepInfo{
	{Step: StepBasicInfo, Title: "Basic Info", Description: "Tool name, description, and category", validate: validateBasicInfo},
	{Step: StepFeatures, Title: "Features", Description: "Select your tool's capabilities", validate: validateFeatures},
	{Step: StepPricing, Title: "Pricing", Description: "Configure pricing tiers and models", validate: validatePricing},
	{Step: StepScreenshots, Title: "Screenshots", Description: "Upload images and screenshots", validate: validateScreenshots},
	{Step: StepContact, Title: "Contact", Description: "Contact information and links", validate: validateContact},
	{Step: StepPayment, Title: "Payment", Description: "Complete submission payment", validate: nil},
}

// Steps возвращает таблицу шагов по порядку.
func Steps() []StepInfo {
	out := make([]StepInfo, len(stepTable))
	copy(out, stepTable[:])
	return out
}

func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

// Info возвращает описание шага. Для недопустимого шага - нулевое значение.
func (s Step) Info() StepInfo {
	if !s.Valid() {
		return StepInfo{}
	}
	return stepTable[s-1]
}

func (s Step) String() string {
	if !s.Valid() {
		return "Step(" + strconv.Itoa(int(s)) + ")"
	}
	return stepTable[s-1].Title
}
