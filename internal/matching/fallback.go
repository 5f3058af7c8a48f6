// internal/matching/fallback.go
package matching

import (
	"sort"
	"strings"
)

// fallbackLocations maps lower-cased U.S. state abbreviations, state names and
// major freight cities to representative coordinates. It resolves most
// human-entered "City, ST" strings without any network call.
var fallbackLocations = map[string]Coordinate{
	// Alabama
	"al":         {32.3668, -86.3000},
	"alabama":    {32.3668, -86.3000},
	"birmingham": {33.5186, -86.8104},
	"mobile":     {30.6954, -88.0399},
	"huntsville": {34.7304, -86.5861},
	"montgomery": {32.3668, -86.3000},
	// Arizona
	"az":        {33.4484, -112.0740},
	"arizona":   {33.4484, -112.0740},
	"phoenix":   {33.4484, -112.0740},
	"tucson":    {32.2226, -110.9747},
	"flagstaff": {35.1983, -111.6513},
	// Arkansas
	"ar":          {34.7465, -92.2896},
	"arkansas":    {34.7465, -92.2896},
	"little rock": {34.7465, -92.2896},
	"fort smith":  {35.3859, -94.3985},
	// California
	"ca":            {36.7783, -119.4179},
	"california":    {36.7783, -119.4179},
	"los angeles":   {34.0522, -118.2437},
	"san francisco": {37.7749, -122.4194},
	"san diego":     {32.7157, -117.1611},
	"sacramento":    {38.5816, -121.4944},
	"fresno":        {36.7378, -119.7871},
	"oakland":       {37.8044, -122.2712},
	"bakersfield":   {35.3733, -119.0187},
	// Colorado
	"co":               {39.7392, -104.9903},
	"colorado":         {39.7392, -104.9903},
	"denver":           {39.7392, -104.9903},
	"colorado springs": {38.8339, -104.8214},
	// Connecticut
	"ct":          {41.7658, -72.6734},
	"connecticut": {41.7658, -72.6734},
	"hartford":    {41.7658, -72.6734},
	"new haven":   {41.3083, -72.9279},
	// Florida
	"fl":           {28.5383, -81.3792},
	"florida":      {28.5383, -81.3792},
	"miami":        {25.7617, -80.1918},
	"orlando":      {28.5383, -81.3792},
	"tampa":        {27.9506, -82.4572},
	"jacksonville": {30.3322, -81.6557},
	"tallahassee":  {30.4383, -84.2807},
	// Georgia
	"ga":       {33.7490, -84.3880},
	"georgia":  {33.7490, -84.3880},
	"atlanta":  {33.7490, -84.3880},
	"savannah": {32.0809, -81.0912},
	"augusta":  {33.4735, -82.0105},
	// Illinois
	"il":       {41.8781, -87.6298},
	"illinois": {41.8781, -87.6298},
	"chicago":  {41.8781, -87.6298},
	"peoria":   {40.6936, -89.5890},
	"rockford": {42.2711, -89.0940},
	// Indiana
	"in":           {39.7684, -86.1581},
	"indiana":      {39.7684, -86.1581},
	"indianapolis": {39.7684, -86.1581},
	"fort wayne":   {41.0793, -85.1394},
	"gary":         {41.5934, -87.3464},
	// Iowa
	"ia":           {41.5868, -93.6250},
	"iowa":         {41.5868, -93.6250},
	"des moines":   {41.5868, -93.6250},
	"davenport":    {41.5236, -90.5776},
	"cedar rapids": {41.9779, -91.6656},
	// Kansas
	"ks":      {37.6872, -97.3301},
	"kansas":  {37.6872, -97.3301},
	"wichita": {37.6872, -97.3301},
	"topeka":  {39.0473, -95.6752},
	// Kentucky
	"ky":            {38.2527, -85.7585},
	"kentucky":      {38.2527, -85.7585},
	"louisville":    {38.2527, -85.7585},
	"lexington, ky": {38.0406, -84.5037},
	// Louisiana
	"la":          {30.4515, -91.1871},
	"louisiana":   {30.4515, -91.1871},
	"new orleans": {29.9511, -90.0715},
	"baton rouge": {30.4515, -91.1871},
	"shreveport":  {32.5252, -93.7502},
	// Maryland
	"md":        {39.2904, -76.6122},
	"maryland":  {39.2904, -76.6122},
	"baltimore": {39.2904, -76.6122},
	// Massachusetts
	"ma":            {42.3601, -71.0589},
	"massachusetts": {42.3601, -71.0589},
	"boston":        {42.3601, -71.0589},
	"worcester":     {42.2626, -71.8023},
	// Michigan
	"mi":           {42.3314, -83.0458},
	"michigan":     {42.3314, -83.0458},
	"detroit":      {42.3314, -83.0458},
	"grand rapids": {42.9634, -85.6681},
	"lansing":      {42.7325, -84.5555},
	// Minnesota
	"mn":          {44.9778, -93.2650},
	"minnesota":   {44.9778, -93.2650},
	"minneapolis": {44.9778, -93.2650},
	"st. paul":    {44.9537, -93.0900},
	"duluth":      {46.7867, -92.1005},
	// Mississippi
	"ms":          {32.2988, -90.1848},
	"mississippi": {32.2988, -90.1848},
	"jackson, ms": {32.2988, -90.1848},
	"gulfport":    {30.3674, -89.0928},
	// Missouri
	"mo":          {38.6270, -90.1994},
	"missouri":    {38.6270, -90.1994},
	"st. louis":   {38.6270, -90.1994},
	"st louis":    {38.6270, -90.1994},
	"saint louis": {38.6270, -90.1994},
	"kansas city": {39.0997, -94.5786},
	// Nevada
	"nv":        {36.1699, -115.1398},
	"nevada":    {36.1699, -115.1398},
	"las vegas": {36.1699, -115.1398},
	"reno":      {39.5296, -119.8138},
	// New Jersey
	"nj":          {40.7357, -74.1724},
	"new jersey":  {40.7357, -74.1724},
	"newark":      {40.7357, -74.1724},
	"trenton":     {40.2206, -74.7597},
	"jersey city": {40.7178, -74.0431},
	// New Mexico
	"nm":          {35.0844, -106.6504},
	"new mexico":  {35.0844, -106.6504},
	"albuquerque": {35.0844, -106.6504},
	"santa fe":    {35.6870, -105.9378},
	// New York
	"ny":            {40.7128, -74.0060},
	"new york":      {40.7128, -74.0060},
	"new york city": {40.7128, -74.0060},
	"nyc":           {40.7128, -74.0060},
	"buffalo":       {42.8864, -78.8784},
	"albany":        {42.6526, -73.7562},
	"syracuse":      {43.0481, -76.1474},
	"rochester, ny": {43.1566, -77.6088},
	// North Carolina
	"nc":             {35.2271, -80.8431},
	"north carolina": {35.2271, -80.8431},
	"charlotte":      {35.2271, -80.8431},
	"raleigh":        {35.7796, -78.6382},
	"greensboro":     {36.0726, -79.7920},
	// Ohio
	"oh":         {39.9612, -82.9988},
	"ohio":       {39.9612, -82.9988},
	"columbus":   {39.9612, -82.9988},
	"cleveland":  {41.4993, -81.6944},
	"cincinnati": {39.1031, -84.5120},
	"toledo":     {41.6528, -83.5379},
	// Oklahoma
	"ok":            {35.4676, -97.5164},
	"oklahoma":      {35.4676, -97.5164},
	"oklahoma city": {35.4676, -97.5164},
	"tulsa":         {36.1540, -95.9928},
	// Oregon
	"or":       {45.5152, -122.6784},
	"oregon":   {45.5152, -122.6784},
	"portland": {45.5152, -122.6784},
	"eugene":   {44.0521, -123.0868},
	// Pennsylvania
	"pa":           {40.2732, -76.8867},
	"pennsylvania": {40.2732, -76.8867},
	"philadelphia": {39.9526, -75.1652},
	"pittsburgh":   {40.4406, -79.9959},
	"harrisburg":   {40.2732, -76.8867},
	"allentown":    {40.6023, -75.4714},
	// South Carolina
	"sc":             {34.0007, -81.0348},
	"south carolina": {34.0007, -81.0348},
	"columbia, sc":   {34.0007, -81.0348},
	"charleston, sc": {32.7765, -79.9311},
	"greenville, sc": {34.8526, -82.3940},
	// Tennessee
	"tn":          {36.1627, -86.7816},
	"tennessee":   {36.1627, -86.7816},
	"nashville":   {36.1627, -86.7816},
	"memphis":     {35.1495, -90.0490},
	"knoxville":   {35.9606, -83.9207},
	"chattanooga": {35.0456, -85.3097},
	// Texas
	"tx":          {31.9686, -99.9018},
	"texas":       {31.9686, -99.9018},
	"dallas":      {32.7767, -96.7970},
	"houston":     {29.7604, -95.3698},
	"san antonio": {29.4241, -98.4936},
	"austin":      {30.2672, -97.7431},
	"el paso":     {31.7619, -106.4850},
	"fort worth":  {32.7555, -97.3308},
	"laredo":      {27.5306, -99.4803},
	// Utah
	"ut":             {40.7608, -111.8910},
	"utah":           {40.7608, -111.8910},
	"salt lake city": {40.7608, -111.8910},
	"ogden":          {41.2230, -111.9738},
	// Virginia
	"va":       {37.5407, -77.4360},
	"virginia": {37.5407, -77.4360},
	"richmond": {37.5407, -77.4360},
	"norfolk":  {36.8508, -76.2859},
	"roanoke":  {37.2710, -79.9414},
	// Washington
	"wa":         {47.6062, -122.3321},
	"washington": {47.6062, -122.3321},
	"seattle":    {47.6062, -122.3321},
	"spokane":    {47.6588, -117.4260},
	"tacoma":     {47.2529, -122.4443},
	// Wisconsin
	"wi":        {43.0389, -87.9065},
	"wisconsin": {43.0389, -87.9065},
	"milwaukee": {43.0389, -87.9065},
	"madison":   {43.0731, -89.4012},
	"green bay": {44.5133, -88.0133},
}

// partialKeys holds the table keys eligible for substring matching, longest
// first so "arkansas" wins over "kansas" and "jacksonville" over "jackson".
// Two-letter abbreviations only ever match exactly.
var partialKeys []string

func init() {
	for k := range fallbackLocations {
		if len(k) > 2 {
			partialKeys = append(partialKeys, k)
		}
	}
	sort.Slice(partialKeys, func(i, j int) bool {
		if len(partialKeys[i]) != len(partialKeys[j]) {
			return len(partialKeys[i]) > len(partialKeys[j])
		}
		return partialKeys[i] < partialKeys[j]
	})
}

// minReversePartial is the shortest input that may match as a substring of
// a table key; shorter fragments match far too much.
const minReversePartial = 4

// locationKey is the normalized form used for table lookups and cache keys.
func locationKey(location string) string {
	return strings.Join(strings.Fields(strings.ToLower(location)), " ")
}

func lookupKey(key string) (Coordinate, bool) {
	if key == "" {
		return Coordinate{}, false
	}
	if c, ok := fallbackLocations[key]; ok {
		return c, true
	}
	for _, k := range partialKeys {
		if strings.Contains(key, k) {
			return fallbackLocations[k], true
		}
		if len(key) >= minReversePartial && strings.Contains(k, key) {
			return fallbackLocations[k], true
		}
	}
	return Coordinate{}, false
}

// LookupFallback resolves a location from the static table: the whole string,
// then the part before the first comma (city), then the part after the last
// comma (state).
func LookupFallback(location string) (Coordinate, bool) {
	key := locationKey(location)
	if key == "" {
		return Coordinate{}, false
	}
	if c, ok := lookupKey(key); ok {
		return c, true
	}
	if i := strings.Index(key, ","); i >= 0 {
		if c, ok := lookupKey(strings.TrimSpace(key[:i])); ok {
			return c, true
		}
	}
	if i := strings.LastIndex(key, ","); i >= 0 {
		if c, ok := lookupKey(strings.TrimSpace(key[i+1:])); ok {
			return c, true
		}
	}
	return Coordinate{}, false
}
