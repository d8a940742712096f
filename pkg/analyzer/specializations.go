package analyzer

// specialization is the static prompt data for one agent type.
type specialization struct {
	Name         string
	Description  string
	Capabilities []string
	SystemPrompt string
}

var specializations = map[string]specialization{
	TypeQuality: {
		Name:         "Quality Inspector",
		Description:  "Evaluates product build quality, materials, and durability signals in reviews",
		Capabilities: []string{"analyze"},
		SystemPrompt: "You are a product quality inspector. Classify the sentiment of a customer review " +
			"strictly from the quality perspective: build quality, materials, durability, defects, " +
			"and manufacturing consistency. Ignore price, shipping, and service complaints unless " +
			"they reveal a quality defect.",
	},
	TypeExperience: {
		Name:         "Customer Experience Analyst",
		Description:  "Evaluates the end-to-end customer journey: purchase, delivery, support, returns",
		Capabilities: []string{"analyze"},
		SystemPrompt: "You are a customer experience analyst. Classify the sentiment of a customer review " +
			"from the service and journey perspective: ordering, delivery, packaging, customer support, " +
			"returns, and warranty handling. Product defects matter only insofar as the seller's " +
			"response to them.",
	},
	TypeUserExperience: {
		Name:         "User Experience Researcher",
		Description:  "Evaluates usability, ergonomics, and day-to-day interaction with the product",
		Capabilities: []string{"analyze"},
		SystemPrompt: "You are a user experience researcher. Classify the sentiment of a customer review " +
			"from the usability perspective: ease of use, setup, learning curve, ergonomics, comfort, " +
			"and how well the product fits into the user's daily routine.",
	},
	TypeBusiness: {
		Name:         "Business Analyst",
		Description:  "Evaluates value for money, competitive positioning, and repurchase intent",
		Capabilities: []string{"analyze"},
		SystemPrompt: "You are a business analyst. Classify the sentiment of a customer review from the " +
			"commercial perspective: perceived value for money, comparison with alternatives, " +
			"willingness to recommend, and repurchase intent.",
	},
	TypeTechnical: {
		Name:         "Technical Specialist",
		Description:  "Evaluates technical performance, specifications, and compatibility",
		Capabilities: []string{"analyze"},
		SystemPrompt: "You are a technical specialist. Classify the sentiment of a customer review from " +
			"the technical perspective: performance against specification, reliability under load, " +
			"compatibility, battery or power behavior, and software or firmware issues.",
	},
	TypeMasterAnalyst: {
		Name:         "Master Analyst",
		Description:  "Synthesizes department analyses into one authoritative verdict",
		Capabilities: []string{"analyze", "synthesize"},
		SystemPrompt: "You are the master analyst. You receive sentiment analyses from several specialist " +
			"departments together with the original review. Weigh the departments' evidence, resolve " +
			"contradictions, and produce one final verdict. Your reasoning must reference which " +
			"department signals drove the verdict.",
	},
	TypeBusinessAdvisor: {
		Name:         "Business Advisor",
		Description:  "Derives actionable business recommendations from the final verdict",
		Capabilities: []string{"analyze", "recommend"},
		SystemPrompt: "You are a business advisor. Given the master analyst's verdict and the department " +
			"analyses, derive concrete actions the seller should take: product fixes, listing changes, " +
			"support interventions, or pricing moves. Keep the sentiment aligned with the master " +
			"verdict and put the recommendations in business_impact.",
	},
}

// focusAreas keys are agent type, then product category. The electronics
// list doubles as the fallback for unknown categories.
var focusAreas = map[string]map[string][]string{
	TypeQuality: {
		"electronics":     {"build quality", "component reliability", "heat and noise", "defect rate"},
		"fashion":         {"fabric quality", "stitching", "color fastness", "wear resistance"},
		"home_garden":     {"material sturdiness", "weather resistance", "assembly tolerances", "finish"},
		"beauty_health":   {"ingredient quality", "packaging integrity", "shelf life", "consistency"},
		"sports_outdoors": {"impact resistance", "material durability", "weatherproofing", "stitching and seams"},
		"books_media":     {"print quality", "binding", "paper stock", "physical condition on arrival"},
	},
	TypeExperience: {
		"electronics":     {"delivery speed", "packaging protection", "warranty handling", "support responsiveness"},
		"fashion":         {"sizing accuracy", "return ease", "delivery speed", "exchange handling"},
		"home_garden":     {"delivery of bulky items", "missing parts resolution", "assembly support", "returns"},
		"beauty_health":   {"seal on arrival", "expiry dates", "refund handling", "subscription experience"},
		"sports_outdoors": {"delivery speed", "sizing exchanges", "warranty claims", "seasonal availability"},
		"books_media":     {"delivery condition", "edition accuracy", "preorder handling", "replacement speed"},
	},
	TypeUserExperience: {
		"electronics":     {"setup experience", "interface clarity", "daily ergonomics", "documentation"},
		"fashion":         {"fit and comfort", "ease of care", "versatility", "true-to-photo appearance"},
		"home_garden":     {"assembly ease", "daily usability", "cleaning and maintenance", "space fit"},
		"beauty_health":   {"application ease", "skin feel", "scent", "routine integration"},
		"sports_outdoors": {"comfort during activity", "adjustability", "portability", "ease of setup"},
		"books_media":     {"readability", "formatting", "navigation", "font and layout"},
	},
	TypeBusiness: {
		"electronics":     {"price versus specs", "brand alternatives", "resale value", "upgrade worthiness"},
		"fashion":         {"price versus quality", "brand comparison", "seasonal value", "repurchase intent"},
		"home_garden":     {"cost per use", "comparable products", "longevity value", "recommendation intent"},
		"beauty_health":   {"price per volume", "drugstore alternatives", "repurchase intent", "dupe comparisons"},
		"sports_outdoors": {"price versus performance", "pro versus casual value", "brand loyalty", "gear alternatives"},
		"books_media":     {"price versus format", "library alternatives", "collection value", "gift worthiness"},
	},
	TypeTechnical: {
		"electronics":     {"performance benchmarks", "battery life", "connectivity", "firmware stability"},
		"fashion":         {"fabric technology", "care requirements", "colorfastness", "technical sizing"},
		"home_garden":     {"power consumption", "load capacity", "mechanism reliability", "spec accuracy"},
		"beauty_health":   {"formulation", "active ingredient concentration", "dermatological claims", "stability"},
		"sports_outdoors": {"performance specs", "weight and balance", "material technology", "measurement accuracy"},
		"books_media":     {"format compatibility", "audio or print fidelity", "digital access", "edition completeness"},
	},
}

// FocusAreas returns the focus list for (agentType, category). Unknown
// categories fall back to electronics; master and advisor specializations
// have no focus lists.
func FocusAreas(agentType, category string) []string {
	byCategory, ok := focusAreas[agentType]
	if !ok {
		return nil
	}
	if focus, ok := byCategory[category]; ok {
		return focus
	}
	return byCategory[DefaultCategory]
}

// DisplayName returns the human-readable agent name for a type.
func DisplayName(agentType string) string {
	if spec, ok := specializations[agentType]; ok {
		return spec.Name
	}
	return agentType
}

// NormalizeCategory maps unknown product categories to the default.
func NormalizeCategory(category string) string {
	for _, known := range KnownCategories {
		if category == known {
			return category
		}
	}
	return DefaultCategory
}
