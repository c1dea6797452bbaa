// Package domain models flood predictions for the Jabodetabek region
// (Jakarta, Bogor, Depok, Tangerang, Bekasi).
//
// # Input Conventions
//
// Prediction requests arrive with Indonesian field names and month names:
//
//	{"tahun": 2024, "bulan": "Januari", "latitude": -6.3, "longitude": 106.8}
//
// Month names are the twelve canonical Indonesian names, matched exactly:
// Januari, Februari, Maret, April, Mei, Juni, Juli, Agustus, September,
// Oktober, November, Desember. See [MonthNumber].
//
// # Serviceable Region
//
// Predictions are only accepted inside a fixed bounding box around the
// metropolitan area. Both edges of each axis are exclusive: a coordinate
// lying exactly on the box edge is rejected. See [ValidateCoordinates].
//
// # Administrative Labels
//
// The prediction model answers with GADM-style administrative names:
//
//	NAME_2  regency (kabupaten/kota), passed through unchanged
//	NAME_3  district (kecamatan), often lower-case with words glued together
//
// District names such as "pondokgede" or "pondokGede" are normalized to
// "Pondok Gede" by [FormatDistrictLabel]. The split relies on a dictionary of
// common locality prefixes and is a heuristic: names whose first word is not
// in the dictionary are only capitalized.
package domain
