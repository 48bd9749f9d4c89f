package entities

var countries = []string{
	"Afghanistan", "Albania", "Algeria", "Angola", "Argentina", "Armenia", "Australia", "Austria",
	"Azerbaijan", "Bahrain", "Bangladesh", "Belarus", "Belgium", "Bolivia", "Bosnia", "Brazil",
	"Bulgaria", "Burkina Faso", "Burma", "Cambodia", "Cameroon", "Canada", "Chad", "Chile", "China",
	"Colombia", "Congo", "Costa Rica", "Croatia", "Cuba", "Cyprus", "Czech Republic", "Denmark",
	"Djibouti", "Ecuador", "Egypt", "El Salvador", "Eritrea", "Estonia", "Ethiopia", "Fiji",
	"Finland", "France", "Gabon", "Georgia", "Germany", "Ghana", "Greece", "Guatemala", "Guinea",
	"Haiti", "Honduras", "Hungary", "Iceland", "India", "Indonesia", "Iran", "Iraq", "Ireland",
	"Israel", "Italy", "Jamaica", "Japan", "Jordan", "Kazakhstan", "Kenya", "Kosovo", "Kuwait",
	"Kyrgyzstan", "Laos", "Latvia", "Lebanon", "Libya", "Lithuania", "Madagascar", "Malawi",
	"Malaysia", "Mali", "Mauritania", "Mexico", "Moldova", "Mongolia", "Montenegro", "Morocco",
	"Mozambique", "Myanmar", "Namibia", "Nepal", "Netherlands", "New Zealand", "Nicaragua", "Niger",
	"Nigeria", "North Korea", "Norway", "Oman", "Pakistan", "Palestine", "Panama",
	"Papua New Guinea", "Paraguay", "Peru", "Philippines", "Poland", "Portugal", "Qatar", "Romania",
	"Russia", "Rwanda", "Saudi Arabia", "Senegal", "Serbia", "Sierra Leone", "Singapore",
	"Slovakia", "Slovenia", "Somalia", "South Africa", "South Korea", "South Sudan", "Spain",
	"Sri Lanka", "Sudan", "Sweden", "Switzerland", "Syria", "Taiwan", "Tajikistan", "Tanzania",
	"Thailand", "Tonga", "Tunisia", "Turkey", "Turkmenistan", "Uganda", "Ukraine",
	"United Arab Emirates", "United Kingdom", "United States", "Uruguay", "Uzbekistan", "Vanuatu",
	"Venezuela", "Vietnam", "Yemen", "Zambia", "Zimbabwe", "USA", "UK", "UAE", "Gaza", "Crimea",
	"Alaska", "California", "Hawaii", "Texas", "Oklahoma", "Nevada", "Puerto Rico",
}

var cities = []string{
	"Beijing", "Berlin", "Bogota", "Brussels", "Cairo", "Damascus", "Delhi", "Dubai", "Geneva",
	"Jakarta", "Jerusalem", "Kabul", "Karachi", "Khartoum", "Kyiv", "Kiev", "Lagos", "Lima",
	"London", "Los Angeles", "Madrid", "Manila", "Mexico City", "Moscow", "Mumbai", "Nairobi",
	"New York", "Paris", "Rome", "San Francisco", "Santiago", "Seoul", "Shanghai", "Tehran",
	"Tel Aviv", "Tokyo", "Washington", "Anchorage", "Istanbul", "Ankara", "Baghdad", "Beirut",
	"Caracas", "Dhaka", "Doha", "Hanoi", "Havana", "Islamabad", "Kathmandu", "Kinshasa", "Lisbon",
	"Mogadishu", "Riyadh", "Sanaa", "Taipei", "Tripoli", "Vienna", "Warsaw",
}

var locations = []string{
	"Africa", "Antarctica", "Arctic", "Asia", "Atlantic", "Balkans", "Caribbean", "Caucasus",
	"Central America", "Europe", "Gulf of Aden", "Horn of Africa", "Indian Ocean", "Latin America",
	"Mediterranean", "Middle East", "North America", "Pacific", "Persian Gulf", "Red Sea",
	"Sahel", "Scandinavia", "Siberia", "South America", "South China Sea", "Southeast Asia",
	"Strait of Hormuz", "Black Sea", "Baltic Sea", "Aegean Sea", "Java", "Sumatra", "Luzon",
	"Mindanao", "Kamchatka", "Aleutian Islands", "Kuril Islands", "Hokkaido", "Honshu", "Kyushu",
	"Andes", "Himalaya", "Himalayas", "Ring of Fire", "West Bank", "Kashmir", "Donbas", "Tigray",
	"Darfur",
}

var nationalities = []string{
	"Afghan", "African", "American", "Arab", "Australian", "Brazilian", "British", "Canadian",
	"Chinese", "Christian", "Egyptian", "European", "French", "German", "Indian", "Iranian",
	"Iraqi", "Israeli", "Italian", "Japanese", "Jewish", "Korean", "Kurdish", "Kurds", "Lebanese",
	"Mexican", "Muslim", "Nigerian", "Pakistani", "Palestinian", "Russian", "Saudi", "Somali",
	"Sudanese", "Sunni", "Shia", "Shiite", "Syrian", "Taiwanese", "Turkish", "Ukrainian",
	"Yemeni", "Houthi", "Houthis", "Rohingya", "Uyghur", "Venezuelan",
}

var organizations = []string{
	"NATO", "UN", "United Nations", "EU", "European Union", "WHO", "IAEA", "IMF", "World Bank",
	"OPEC", "ASEAN", "African Union", "Red Cross", "ICRC", "UNHCR", "UNICEF", "FBI", "CIA", "NSA",
	"CISA", "NASA", "NOAA", "USGS", "FEMA", "Pentagon", "Kremlin", "Hamas", "Hezbollah", "Taliban",
	"ISIS", "Al-Shabaab", "Wagner", "Microsoft", "Google", "Apple", "Cisco", "Fortinet", "Ivanti",
	"Oracle", "Adobe", "VMware", "Citrix", "Apache", "Atlassian", "Samsung", "Huawei", "Meta",
	"Amazon", "Mozilla", "Linux", "OFAC", "Interpol", "Europol", "MSF", "Lazarus Group",
	"APT28", "APT29", "Sandworm",
}

var orgSuffixes = []string{
	"Inc", "Corp", "Corporation", "Ltd", "LLC", "Company", "Group",
	"Agency", "Ministry", "Department", "Army", "Navy", "Forces", "Force", "Party", "Bank",
	"Council", "Committee", "Command", "Commission", "Institute", "University", "Organization",
	"Organisation", "Authority", "Service", "Guard", "Corps", "Brigade", "Front", "Movement",
	"Foundation", "Association", "Federation", "Systems", "Technologies", "Software", "Networks",
}

var facilitySuffixes = []string{
	"Airport", "Air Base", "Base", "Port", "Harbor", "Harbour", "Bridge", "Dam", "Station",
	"Power Plant", "Plant", "Refinery", "Pipeline", "Canal", "Reactor", "Terminal", "Stadium",
	"Hospital", "Embassy", "Prison", "Mine", "Tunnel", "Cable",
}

var eventSuffixes = []string{
	"Summit", "Olympics", "Games", "Cup", "Conference", "Election", "Elections", "War",
	"Offensive", "Festival", "Forum", "Uprising", "Revolution", "Crisis", "Hurricane",
	"Typhoon", "Cyclone", "Storm",
}

var personTitles = []string{
	"President", "Prime Minister", "Minister", "Chancellor", "Senator", "Governor", "General",
	"Gen", "Admiral", "Colonel", "King", "Queen", "Prince", "Princess", "Pope", "Sheikh",
	"Secretary", "Ambassador", "Mayor", "Dr", "Mr", "Mrs", "Ms", "Commander", "Leader",
}

// abbreviations may be followed by a period without ending the phrase.
var abbreviations = map[string]struct{}{
	"Dr": {}, "Mr": {}, "Mrs": {}, "Ms": {}, "Gen": {}, "St": {}, "Lt": {}, "Col": {}, "Sgt": {},
}

// leadingStopwords are capitalized only because they start a sentence.
var leadingStopwords = map[string]struct{}{
	"The": {}, "A": {}, "An": {}, "In": {}, "On": {}, "At": {}, "This": {}, "That": {},
	"These": {}, "Those": {}, "For": {}, "From": {}, "After": {}, "Before": {}, "During": {},
	"Near": {}, "Over": {}, "Its": {}, "It": {}, "As": {}, "By": {}, "With": {}, "And": {},
}
