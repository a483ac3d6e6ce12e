package graph

import "strconv"

// nodeIDString formats a node id for error frame annotations.
func nodeIDString(id int32) string {
	return "#" + strconv.FormatInt(int64(id), 10)
}

// strconvInt64 formats a plain decimal int64, used for job id labels.
func strconvInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}
