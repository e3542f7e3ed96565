package dataset

// Column is a raw CSV column name as it appears (trimmed) in the source header.
type Column string

// Key columns. A row missing any of these is rejected at load time.
const (
	ColCountryName Column = "Country Name"
	ColCountryCode Column = "Country Code"
	ColYear        Column = "Year"
)

// Classification columns.
const (
	ColContinent   Column = "Continent"
	ColIncomeClass Column = "Income Classification (World Bank Definition)"
	ColRegimeType  Column = "Regime Type (RoW Measure Definition)"
	ColUNSDGRegion Column = "World Regions (UN SDG Definition)"
)

// Indicator columns.
const (
	ColAccessElectricity     Column = "Access to electricity (% of population) - EG.ELC.ACCS.ZS"
	ColAdjNetIncomeGrowth    Column = "Adjusted net national income per capita (annual % growth) - NY.ADJ.NNTY.PC.KD.ZG"
	ColAdjNetSavings         Column = "Adjusted net savings, excluding particulate emission damage (% of GNI) - NY.ADJ.SVNX.GN.ZS"
	ColAdjSavingsCO2         Column = "Adjusted savings: carbon dioxide damage (% of GNI) - NY.ADJ.DCO2.GN.ZS"
	ColAdjSavingsResources   Column = "Adjusted savings: natural resources depletion (% of GNI) - NY.ADJ.DRES.GN.ZS"
	ColAdjSavingsForest      Column = "Adjusted savings: net forest depletion (% of GNI) - NY.ADJ.DFOR.GN.ZS"
	ColAdjSavingsParticulate Column = "Adjusted savings: particulate emission damage (% of GNI) - NY.ADJ.DPEM.GN.ZS"
	ColATMs                  Column = "Automated teller machines (ATMs) (per 100,000 adults) - FB.ATM.TOTL.P5"
	ColBroadMoney            Column = "Broad money (% of GDP) - FM.LBL.BMNY.GD.ZS"
	ColChildrenOutOfSchool   Column = "Children out of school (% of primary school age) - SE.PRM.UNER.ZS"
	ColCompulsoryEducation   Column = "Compulsory education, duration (years) - SE.COM.DURS"
	ColStartupCostFemale     Column = "Cost of business start-up procedures, female (% of GNI per capita) - IC.REG.COST.PC.FE.ZS"
	ColStartupCostMale       Column = "Cost of business start-up procedures, male (% of GNI per capita) - IC.REG.COST.PC.MA.ZS"
	ColExports               Column = "Exports of goods and services (% of GDP) - NE.EXP.GNFS.ZS"
	ColFinalConsumption      Column = "Final consumption expenditure (% of GDP) - NE.CON.TOTL.ZS"
	ColGDP                   Column = "GDP (current US$) - NY.GDP.MKTP.CD"
	ColGDPPerCapita          Column = "GDP per capita (current US$) - NY.GDP.PCAP.CD"
	ColGovConsumption        Column = "General government final consumption expenditure (% of GDP) - NE.CON.GOVT.ZS"
	ColGrossNationalExpend   Column = "Gross national expenditure (% of GDP) - NE.DAB.TOTL.ZS"
	ColGrossSavings          Column = "Gross savings (% of GDP) - NY.GNS.ICTR.ZS"
	ColImports               Column = "Imports of goods and services (% of GDP) - NE.IMP.GNFS.ZS"
	ColInflation             Column = "Inflation, consumer prices (annual %) - FP.CPI.TOTL.ZG"
	ColPrimaryCompletion     Column = "Primary completion rate, total (% of relevant age group) - SE.PRM.CMPT.ZS"
	ColWomenInParliament     Column = "Proportion of seats held by women in national parliaments (%) - SG.GEN.PARL.ZS"
	ColPupilTeacherRatio     Column = "Pupil-teacher ratio, primary - SE.PRM.ENRL.TC.ZS"
	ColRenewableElectricity  Column = "Renewable electricity output (% of total electricity output) - EG.ELC.RNEW.ZS"
	ColRenewableConsumption  Column = "Renewable energy consumption (% of total final energy consumption) - EG.FEC.RNEW.ZS"
	ColEnrollmentPreprimary  Column = "School enrollment, preprimary (% gross) - SE.PRE.ENRR"
	ColEnrollmentPrimary     Column = "School enrollment, primary (% gross) - SE.PRM.ENRR"
	ColEnrollmentSecondary   Column = "School enrollment, secondary (% gross) - SE.SEC.ENRR"
	ColTrade                 Column = "Trade (% of GDP) - NE.TRD.GNFS.ZS"
	ColWomenBusinessLaw      Column = "Women Business and the Law Index Score (scale 1-100) - SG.LAW.INDX"
	ColUndernourishment      Column = "Prevalence of undernourishment (%) - SN_ITK_DEFC - 2.1.1"
	ColPovertyLine           Column = "Proportion of population below international poverty line (%) - SI_POV_DAY1 - 1.1.1"
	ColMobile2G              Column = "Proportion of population covered by at least a 2G mobile network (%) - IT_MOB_2GNTWK - 9.c.1"
	ColMobile3G              Column = "Proportion of population covered by at least a 3G mobile network (%) - IT_MOB_3GNTWK - 9.c.1"
	ColDrinkingWater         Column = "Proportion of population using basic drinking water services (%) - SP_ACS_BSRVH2O - 1.4.1"
	ColUnemploymentMale      Column = "Unemployment rate, male (%) - SL_TLF_UEM - 8.5.2"
	ColUnemploymentWomen     Column = "Unemployment rate, women (%) - SL_TLF_UEM - 8.5.2"
	ColCO2Emissions          Column = "Annual production-based emissions of carbon dioxide (CO2), measured in million tonnes"
	ColGini                  Column = "Gini index (World Bank estimate) - SI.POV.GINI"
	ColInternetUsers         Column = "Individuals using the Internet (% of population) - IT.NET.USER.ZS"
	ColLifeExpectancy        Column = "Life expectancy at birth, total (years) - SP.DYN.LE00.IN"
	ColPopulation            Column = "Population, total - SP.POP.TOTL"
	ColRuralPopulation       Column = "Rural population (% of total population) - SP.RUR.TOTL.ZS"
	ColNaturalResourceRents  Column = "Total natural resources rents (% of GDP) - NY.GDP.TOTL.RT.ZS"
	ColUrbanPopulation       Column = "Urban population (% of total population) - SP.URB.TOTL.IN.ZS"
)

// Columns lists the known schema in source order.
var Columns = []Column{
	ColCountryName,
	ColCountryCode,
	ColYear,
	ColAccessElectricity,
	ColAdjNetIncomeGrowth,
	ColAdjNetSavings,
	ColAdjSavingsCO2,
	ColAdjSavingsResources,
	ColAdjSavingsForest,
	ColAdjSavingsParticulate,
	ColATMs,
	ColBroadMoney,
	ColChildrenOutOfSchool,
	ColCompulsoryEducation,
	ColStartupCostFemale,
	ColStartupCostMale,
	ColExports,
	ColFinalConsumption,
	ColGDP,
	ColGDPPerCapita,
	ColGovConsumption,
	ColGrossNationalExpend,
	ColGrossSavings,
	ColImports,
	ColInflation,
	ColPrimaryCompletion,
	ColWomenInParliament,
	ColPupilTeacherRatio,
	ColRenewableElectricity,
	ColRenewableConsumption,
	ColEnrollmentPreprimary,
	ColEnrollmentPrimary,
	ColEnrollmentSecondary,
	ColTrade,
	ColWomenBusinessLaw,
	ColUndernourishment,
	ColPovertyLine,
	ColMobile2G,
	ColMobile3G,
	ColDrinkingWater,
	ColUnemploymentMale,
	ColUnemploymentWomen,
	ColCO2Emissions,
	ColContinent,
	ColGini,
	ColIncomeClass,
	ColInternetUsers,
	ColLifeExpectancy,
	ColPopulation,
	ColRegimeType,
	ColRuralPopulation,
	ColNaturalResourceRents,
	ColUrbanPopulation,
	ColUNSDGRegion,
}

// MetricsCount describes the schema width advertised in dataset metadata.
// Keep it equal to len(Columns).
const MetricsCount = 54

var knownColumns = func() map[Column]struct{} {
	m := make(map[Column]struct{}, len(Columns))
	for _, c := range Columns {
		m[c] = struct{}{}
	}
	return m
}()

// IsKnown reports whether c is part of the known schema.
func IsKnown(c Column) bool {
	_, ok := knownColumns[c]
	return ok
}

// Canonical field names of a normalized record.
const (
	FieldCountry        = "Country"
	FieldYear           = "Year"
	FieldRegion         = "Region"
	FieldIncomeGroup    = "Income group"
	FieldCarbon         = "Carbon emissions (metric tons per capita)"
	FieldRenewable      = "Renewable energy consumption (% of total final energy consumption)"
	FieldGDPPerCapita   = "GDP per capita (current US$)"
	FieldLifeExpectancy = "Life expectancy at birth, total (years)"
	FieldForestArea     = "Forest area (% of land area)"
	UnknownClassifier   = "Unknown"
)

// CanonicalFields lists normalized field names in the order they are
// appended after the raw columns.
var CanonicalFields = []string{
	FieldCountry,
	FieldYear,
	FieldRegion,
	FieldIncomeGroup,
	FieldCarbon,
	FieldRenewable,
	FieldGDPPerCapita,
	FieldLifeExpectancy,
	FieldForestArea,
}

// HeadlineMetrics are the numeric canonical fields.
var HeadlineMetrics = []string{
	FieldCarbon,
	FieldRenewable,
	FieldGDPPerCapita,
	FieldLifeExpectancy,
	FieldForestArea,
}

// MetricCategories groups indicator columns by theme.
var MetricCategories = map[string][]Column{
	"environmental": {
		ColAccessElectricity,
		ColAdjSavingsCO2,
		ColAdjSavingsResources,
		ColAdjSavingsForest,
		ColAdjSavingsParticulate,
		ColRenewableElectricity,
		ColRenewableConsumption,
		ColCO2Emissions,
		ColNaturalResourceRents,
		ColDrinkingWater,
	},
	"social": {
		ColChildrenOutOfSchool,
		ColCompulsoryEducation,
		ColPrimaryCompletion,
		ColWomenInParliament,
		ColPupilTeacherRatio,
		ColEnrollmentPreprimary,
		ColEnrollmentPrimary,
		ColEnrollmentSecondary,
		ColWomenBusinessLaw,
		ColUndernourishment,
		ColPovertyLine,
		ColUnemploymentMale,
		ColUnemploymentWomen,
		ColGini,
		ColInternetUsers,
		ColLifeExpectancy,
		ColPopulation,
		ColRuralPopulation,
		ColUrbanPopulation,
	},
	"economic": {
		ColAdjNetIncomeGrowth,
		ColAdjNetSavings,
		ColATMs,
		ColBroadMoney,
		ColStartupCostFemale,
		ColStartupCostMale,
		ColExports,
		ColFinalConsumption,
		ColGDP,
		ColGDPPerCapita,
		ColGovConsumption,
		ColGrossNationalExpend,
		ColGrossSavings,
		ColImports,
		ColInflation,
		ColTrade,
	},
	"technology": {
		ColMobile2G,
		ColMobile3G,
		ColInternetUsers,
	},
}

// CategoryNames is the display order of MetricCategories.
var CategoryNames = []string{"environmental", "social", "economic", "technology"}

// FriendlyNames maps selected long column names to short labels.
var FriendlyNames = map[Column]string{
	ColAccessElectricity:    "Access to Electricity",
	ColAdjNetIncomeGrowth:   "Net National Income Growth",
	ColGDPPerCapita:         "GDP per Capita",
	ColLifeExpectancy:       "Life Expectancy",
	ColRenewableElectricity: "Renewable Electricity",
	ColCO2Emissions:         "CO2 Emissions",
	ColInternetUsers:        "Internet Usage",
	ColWomenInParliament:    "Women in Parliament",
}

// FriendlyName returns the short label for c, or c itself.
func FriendlyName(c Column) string {
	if s, ok := FriendlyNames[c]; ok {
		return s
	}
	return string(c)
}
