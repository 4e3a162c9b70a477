package market

// Template is one headline a news item can be drawn from.
type Template struct {
	Headline  string
	Body      string
	Direction Direction
	Strength  Strength
}

var globalTemplates = []Template{
	{Headline: "Central Bank Signals Rate Adjustment", Body: "Officials indicated potential monetary policy changes in coming months. Markets are closely watching for further guidance on interest rate direction.", Direction: Positive, Strength: Small},
	{Headline: "Inflation Data Above Expectations", Body: "The latest consumer price index came in higher than analysts predicted. Economic observers are reassessing growth projections for the quarter.", Direction: Negative, Strength: Small},
	{Headline: "Strong Economic Growth Reported", Body: "GDP figures exceeded forecasts, showing resilient consumer spending and business investment. Analysts view this as a positive sign for corporate earnings.", Direction: Positive, Strength: Medium},
	{Headline: "Labor Market Shows Resilience", Body: "Employment data remains steady despite global economic headwinds. Job creation continues across multiple sectors.", Direction: Positive, Strength: Small},
	{Headline: "Consumer Confidence Rises", Body: "The consumer confidence index increased for the third consecutive month. Retail and consumer-facing sectors may see increased activity.", Direction: Positive, Strength: Small},
	{Headline: "Trade Tensions Ease Between Nations", Body: "Diplomatic progress was reported in ongoing trade negotiations. Supply chain constraints may improve in coming months.", Direction: Positive, Strength: Medium},
	{Headline: "Currency Markets See Volatility", Body: "Exchange rate fluctuations have increased amid policy uncertainty. International companies may face margin pressure.", Direction: Negative, Strength: Small},
}

var categoryTemplates = map[string][]Template{
	"Technology": {
		{Headline: "Cybersecurity Regulations Expand", Body: "New government mandates require enhanced security measures for enterprise systems. Companies in the space are seeing increased demand for solutions.", Direction: Positive, Strength: Medium},
		{Headline: "Cloud Adoption Accelerates", Body: "Enterprise migration to cloud infrastructure continues at a rapid pace. Platform providers report strong quarterly bookings.", Direction: Positive, Strength: Medium},
		{Headline: "Tech Supply Chain Disruption", Body: "Component shortages are affecting production schedules across the technology sector. Lead times have extended for several key parts.", Direction: Negative, Strength: Medium},
		{Headline: "AI Investment Surge", Body: "Venture capital flowing into artificial intelligence startups reached new highs. Established tech firms are ramping up their own AI initiatives.", Direction: Positive, Strength: Large},
	},
	"Finance": {
		{Headline: "Banking Lending Activity Up", Body: "Financial institutions report increased loan origination volumes. Both consumer and commercial lending categories showed growth.", Direction: Positive, Strength: Medium},
		{Headline: "Interest Rates Benefit Financials", Body: "Rising rates have improved net interest margins for traditional banks. Analysts expect continued earnings strength in the sector.", Direction: Positive, Strength: Medium},
		{Headline: "Payment Processor Scrutiny", Body: "Regulators announced expanded oversight of digital payment systems. Compliance costs are expected to increase for affected companies.", Direction: Negative, Strength: Medium},
	},
	"Healthcare": {
		{Headline: "Medical Device Approvals Accelerate", Body: "The regulatory agency cleared a backlog of device applications. Several companies received faster-than-expected product authorizations.", Direction: Positive, Strength: Medium},
		{Headline: "Healthcare Spending to Rise", Body: "Government projections show increased healthcare expenditures next quarter. Providers and device manufacturers may benefit.", Direction: Positive, Strength: Medium},
		{Headline: "Drug Pricing Under Review", Body: "Lawmakers are examining pharmaceutical pricing practices. Industry observers see potential margin pressure ahead.", Direction: Negative, Strength: Medium},
	},
	"Transportation": {
		{Headline: "Shipping Rates Stabilize", Body: "After months of volatility, container rates have found equilibrium. Logistics companies report improved planning visibility.", Direction: Positive, Strength: Small},
		{Headline: "Fuel Costs Pressure Margins", Body: "Rising energy prices are squeezing transportation companies. Carriers are evaluating surcharge adjustments.", Direction: Negative, Strength: Medium},
		{Headline: "Urban Mobility Gets Municipal Support", Body: "Several cities announced partnerships with mobility providers. Infrastructure investments are planned for next fiscal year.", Direction: Positive, Strength: Medium},
	},
	"Utilities": {
		{Headline: "Grid Infrastructure Investment", Body: "Government backing for power grid modernization was announced. Utility companies stand to benefit from increased spending.", Direction: Positive, Strength: Medium},
		{Headline: "Renewable Energy Transition Continues", Body: "Solar and wind capacity additions outpaced conventional sources. Clean energy providers see expanding opportunities.", Direction: Positive, Strength: Medium},
	},
	"Materials": {
		{Headline: "Battery Material Demand Surges", Body: "Electric vehicle growth is driving increased demand for specialized materials. Mining and processing companies report strong order books.", Direction: Positive, Strength: Large},
		{Headline: "Raw Material Costs Rise", Body: "Commodity prices have increased across multiple categories. Manufacturers face margin pressure from input costs.", Direction: Negative, Strength: Medium},
	},
	"Consumer": {
		{Headline: "Consumer Spending Resilient", Body: "Retail sales data showed continued strength in discretionary categories. Consumer confidence remains elevated.", Direction: Positive, Strength: Small},
		{Headline: "Food Commodity Prices Stable", Body: "Agricultural markets have found stability after recent volatility. Food producers benefit from predictable input costs.", Direction: Positive, Strength: Small},
	},
	"Industrial": {
		{Headline: "Factory Automation Investment Grows", Body: "Manufacturers are accelerating robotics adoption to address labor constraints. Automation equipment demand remains strong.", Direction: Positive, Strength: Medium},
		{Headline: "Industrial Output Mixed", Body: "Manufacturing activity shows uneven performance across subsectors. Some categories face inventory destocking.", Direction: Negative, Strength: Small},
	},
	"Telecom": {
		{Headline: "Telecom Infrastructure Steady", Body: "Network equipment spending remains on track for the year. Carriers continue planned capital expenditure programs.", Direction: Positive, Strength: Small},
		{Headline: "5G Rollout Drives Subscriber Growth", Body: "Next-generation wireless adoption is accelerating in urban markets. Average revenue per user metrics are improving.", Direction: Positive, Strength: Medium},
	},
}

var instrumentTemplates = map[string][]Template{
	"NLSY": {
		{Headline: "Nordlite Systems Wins Major Contract", Body: "Nordlite Systems (NLSY) secured a significant multi-year logistics technology deal. The contract includes platform deployment across regional distribution centers.", Direction: Positive, Strength: Large},
		{Headline: "Nordlite Faces Integration Delays", Body: "Nordlite Systems (NLSY) reported challenges integrating its new platform at customer sites. Project timelines have been extended for several implementations.", Direction: Negative, Strength: Medium},
	},
	"VCLD": {
		{Headline: "Vanta Cloudworks Sets Signup Record", Body: "Vanta Cloudworks (VCLD) announced record enterprise customer additions. The company's cloud platform saw accelerated adoption in the healthcare vertical.", Direction: Positive, Strength: Large},
		{Headline: "Vanta Cloud Outage Reported", Body: "Vanta Cloudworks (VCLD) experienced a service disruption affecting customer operations. Engineering teams worked to restore full functionality within hours.", Direction: Negative, Strength: Medium},
	},
	"KFRG": {
		{Headline: "Kernel Forge Lands Government Deal", Body: "Kernel Forge (KFRG) was selected for a federal cybersecurity initiative. The multi-phase contract spans critical infrastructure protection.", Direction: Positive, Strength: Large},
		{Headline: "Kernel Forge Faces New Competition", Body: "Kernel Forge (KFRG) is responding to increased competitive pressure in its core market. Several new entrants have emerged with alternative solutions.", Direction: Negative, Strength: Medium},
	},
	"HLBG": {
		{Headline: "Halberg Industries Expands Capacity", Body: "Halberg Industries (HLBG) announced plans to increase manufacturing output. New production lines will come online by next quarter.", Direction: Positive, Strength: Medium},
		{Headline: "Halberg Equipment Order Delayed", Body: "Halberg Industries (HLBG) reported that a key equipment order has been pushed back. The delay stems from vendor supply constraints.", Direction: Negative, Strength: Small},
	},
	"AGCO": {
		{Headline: "Aurora Grid Wins Utility Contract", Body: "Aurora Grid Co (AGCO) secured a regional power infrastructure agreement. The project includes grid modernization across three service territories.", Direction: Positive, Strength: Medium},
		{Headline: "Aurora Grid Permit Under Review", Body: "Aurora Grid Co (AGCO) faces extended review of a major project permit. Regulatory timelines have shifted for the planned installation.", Direction: Negative, Strength: Small},
	},
	"SLVX": {
		{Headline: "Solvex Announces Tech Breakthrough", Body: "Solvex Materials (SLVX) revealed a significant advancement in battery technology. The development could improve energy density in next-generation cells.", Direction: Positive, Strength: Large},
		{Headline: "Solvex Supply Chain Disrupted", Body: "Solvex Materials (SLVX) reported disruptions in its raw material supply network. Production schedules may be affected in the near term.", Direction: Negative, Strength: Medium},
	},
	"BHFN": {
		{Headline: "Bronze Harbor Expands Lending", Body: "Bronze Harbor Finance (BHFN) reported growth in its commercial lending portfolio. New originations exceeded quarterly targets.", Direction: Positive, Strength: Medium},
		{Headline: "Bronze Harbor Loan Quality Reviewed", Body: "Bronze Harbor Finance (BHFN) disclosed increased provisions for potential loan losses. The company cited evolving economic conditions.", Direction: Negative, Strength: Medium},
	},
	"MBPY": {
		{Headline: "Mintbridge Payments Volume Grows", Body: "Mintbridge Payments (MBPY) processed record transaction volumes last month. The platform continues to gain merchant adoption.", Direction: Positive, Strength: Medium},
		{Headline: "Mintbridge Under Regulatory Review", Body: "Mintbridge Payments (MBPY) received notice of a regulatory examination. The company expects to cooperate fully with the review.", Direction: Negative, Strength: Medium},
	},
	"OIGR": {
		{Headline: "Orchard Insure Expands Coverage", Body: "Orchard Insure Group (OIGR) launched new insurance products in three additional states. The expansion builds on strong regional performance.", Direction: Positive, Strength: Medium},
		{Headline: "Orchard Insure Claims Rise", Body: "Orchard Insure Group (OIGR) reported higher-than-expected claims in a recent period. Weather-related events contributed to the increase.", Direction: Negative, Strength: Small},
	},
	"CRMD": {
		{Headline: "Cirrus Medical Receives Clearance", Body: "Cirrus Medical (CRMD) obtained regulatory approval for its latest diagnostic device. Commercial launch is planned for next month.", Direction: Positive, Strength: Large},
		{Headline: "Cirrus Medical Recall Concerns", Body: "Cirrus Medical (CRMD) is evaluating a voluntary recall of certain device components. The company emphasized patient safety protocols.", Direction: Negative, Strength: Large},
	},
	"FJFF": {
		{Headline: "Fjord Fresh Expands Distribution", Body: "Fjord Fresh Foods (FJFF) announced new retail partnerships expanding product availability. The deals cover major grocery chains in new regions.", Direction: Positive, Strength: Medium},
		{Headline: "Fjord Fresh Faces Cost Pressure", Body: "Fjord Fresh Foods (FJFF) reported margin pressure from ingredient cost increases. Pricing adjustments are being evaluated.", Direction: Negative, Strength: Small},
	},
	"LRLB": {
		{Headline: "Lumina Retail Labs Launches Platform", Body: "Lumina Retail Labs (LRLB) debuted its next-generation retail analytics solution. Early adopters report improved conversion metrics.", Direction: Positive, Strength: Medium},
		{Headline: "Lumina Labs Customer Loss", Body: "Lumina Retail Labs (LRLB) disclosed the departure of a significant customer. The company is pursuing new enterprise opportunities.", Direction: Negative, Strength: Medium},
	},
	"SHMB": {
		{Headline: "Skyharbor Expands to New Cities", Body: "Skyharbor Mobility (SHMB) launched operations in four additional metropolitan areas. The expansion follows successful pilot programs.", Direction: Positive, Strength: Medium},
		{Headline: "Skyharbor Faces Regulatory Challenge", Body: "Skyharbor Mobility (SHMB) encountered new municipal operating requirements. Compliance costs may increase in affected markets.", Direction: Negative, Strength: Small},
	},
	"TWSH": {
		{Headline: "Tideway Shipping Volume Increases", Body: "Tideway Shipping (TWSH) reported strong cargo throughput gains. Port efficiency improvements contributed to higher utilization.", Direction: Positive, Strength: Medium},
		{Headline: "Tideway Vessel Maintenance Extended", Body: "Tideway Shipping (TWSH) announced extended maintenance for several vessels. Fleet availability will be reduced temporarily.", Direction: Negative, Strength: Small},
	},
	"PNTL": {
		{Headline: "Pinnacle Telecom Network Upgrade", Body: "Pinnacle Telecom (PNTL) completed a major infrastructure modernization milestone. Network capacity has been significantly expanded.", Direction: Positive, Strength: Medium},
		{Headline: "Pinnacle Telecom Subscriber Churn", Body: "Pinnacle Telecom (PNTL) reported higher customer turnover in a competitive market. Retention programs are being enhanced.", Direction: Negative, Strength: Small},
	},
}

// Pools groups templates by scope. Category and Instrument are keyed by sector
// and symbol respectively.
type Pools struct {
	Global     []Template
	Category   map[string][]Template
	Instrument map[string][]Template
}

func DefaultPools() Pools {
	return Pools{
		Global:     globalTemplates,
		Category:   categoryTemplates,
		Instrument: instrumentTemplates,
	}
}
