// Package ports provides well-known port definitions.
package ports

import "slices"

// Top100 is the top 100 most common TCP ports based on nmap frequency data,
// sorted ascending. A lookup table is expected to name most of them.
var Top100 = []int{
	21, 22, 23, 25, 26, 53, 80, 81, 110, 111,
	113, 135, 139, 143, 179, 199, 443, 445, 465, 514,
	515, 548, 554, 587, 631, 636, 646, 993, 995, 1025,
	1026, 1027, 1028, 1029, 1110, 1433, 1720, 1723, 1755, 1900,
	2000, 2001, 2049, 2121, 2717, 3000, 3128, 3306, 3389, 3986,
	4899, 5000, 5009, 5051, 5060, 5101, 5190, 5357, 5432, 5631,
	5666, 5800, 5900, 6000, 6001, 6646, 7070, 8000, 8008, 8009,
	8080, 8081, 8443, 8888, 9090, 9100, 9999, 10000, 32768, 49152,
	49153, 49154, 49155, 49156, 49157, 1080, 1443, 2082, 2083, 2086,
	2087, 4443, 6379, 6443, 8443, 8880, 9200, 9443, 27017, 27018,
}

func init() {
	// 8443 appears twice in the source list.
	slices.Sort(Top100)
	Top100 = slices.Compact(Top100)
}

// IsCommon reports whether port is in Top100.
func IsCommon(port int) bool {
	_, found := slices.BinarySearch(Top100, port)
	return found
}
