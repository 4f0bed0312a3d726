package bot

const (
	StepCountry = "country"
	StepPrice   = "price"
	StepAge     = "age"
	StepEngine  = "engine"
	StepRate1   = "rate_rub"
	StepRate2   = "rate_eur"
)
