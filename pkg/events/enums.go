package events

// Source identifies the feed an event came from.
type Source string

// Known sources.
const (
	SourceGDELT           Source = "gdelt"
	SourceACLED           Source = "acled"
	SourceUCDP            Source = "ucdp"
	SourceReliefWeb       Source = "reliefweb"
	SourceOpenSky         Source = "opensky"
	SourceFAANotam        Source = "faa_notam"
	SourceAIS             Source = "ais"
	SourceNavarea         Source = "navarea"
	SourceUSGS            Source = "usgs"
	SourceNASAEONET       Source = "nasa_eonet"
	SourceNOAA            Source = "noaa"
	SourceNASAFIRMS       Source = "nasa_firms"
	SourceVolcano         Source = "volcano"
	SourceShodan          Source = "shodan"
	SourceGreyNoise       Source = "greynoise"
	SourceOTX             Source = "otx"
	SourceCISAKEV         Source = "cisa_kev"
	SourceBGPStream       Source = "bgpstream"
	SourceOFAC            Source = "ofac"
	SourceUNSanctions     Source = "un_sanctions"
	SourceEUSanctions     Source = "eu_sanctions"
	SourceOpenSanctions   Source = "opensanctions"
	SourceSECEdgar        Source = "sec_edgar"
	SourceWorldBank       Source = "world_bank"
	SourceRSSNews         Source = "rss_news"
	SourceReddit          Source = "reddit"
	SourceSubmarineCables Source = "submarine_cables"
	SourceIODA            Source = "ioda"
	SourceUNHCR           Source = "unhcr"
	SourceWHO             Source = "who"
	SourceINFORMRisk      Source = "inform_risk"
)

var knownSources = map[Source]struct{}{
	SourceGDELT: {}, SourceACLED: {}, SourceUCDP: {}, SourceReliefWeb: {},
	SourceOpenSky: {}, SourceFAANotam: {}, SourceAIS: {}, SourceNavarea: {},
	SourceUSGS: {}, SourceNASAEONET: {}, SourceNOAA: {}, SourceNASAFIRMS: {},
	SourceVolcano: {}, SourceShodan: {}, SourceGreyNoise: {}, SourceOTX: {},
	SourceCISAKEV: {}, SourceBGPStream: {}, SourceOFAC: {}, SourceUNSanctions: {},
	SourceEUSanctions: {}, SourceOpenSanctions: {}, SourceSECEdgar: {}, SourceWorldBank: {},
	SourceRSSNews: {}, SourceReddit: {}, SourceSubmarineCables: {}, SourceIODA: {},
	SourceUNHCR: {}, SourceWHO: {}, SourceINFORMRisk: {},
}

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	_, ok := knownSources[s]
	return ok
}

func (s Source) String() string { return string(s) }

// Category is the kind of real-world signal an event describes.
type Category string

// Known categories.
const (
	CategoryConflict        Category = "conflict"
	CategoryMilitary        Category = "military"
	CategoryAviation        Category = "aviation"
	CategoryMaritime        Category = "maritime"
	CategoryEarthquake      Category = "earthquake"
	CategoryWeather         Category = "weather"
	CategoryWildfire        Category = "wildfire"
	CategoryVolcano         Category = "volcano"
	CategoryNaturalDisaster Category = "natural_disaster"
	CategoryCyber           Category = "cyber"
	CategoryInfrastructure  Category = "infrastructure"
	CategorySanctions       Category = "sanctions"
	CategoryFinancial       Category = "financial"
	CategoryNews            Category = "news"
	CategoryHumanitarian    Category = "humanitarian"
	CategoryHealth          Category = "health"
	CategoryTerrorism       Category = "terrorism"
)

var knownCategories = map[Category]struct{}{
	CategoryConflict: {}, CategoryMilitary: {}, CategoryAviation: {}, CategoryMaritime: {},
	CategoryEarthquake: {}, CategoryWeather: {}, CategoryWildfire: {}, CategoryVolcano: {},
	CategoryNaturalDisaster: {}, CategoryCyber: {}, CategoryInfrastructure: {},
	CategorySanctions: {}, CategoryFinancial: {}, CategoryNews: {}, CategoryHumanitarian: {},
	CategoryHealth: {}, CategoryTerrorism: {},
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := knownCategories[c]
	return ok
}

func (c Category) String() string { return string(c) }

// Severity is an optional coarse impact rating.
type Severity string

// Severity levels.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// GeometryKind describes the shape carried in Coordinates.
type GeometryKind string

// Geometry kinds.
const (
	GeometryPoint   GeometryKind = "point"
	GeometryLine    GeometryKind = "line"
	GeometryPolygon GeometryKind = "polygon"
)
