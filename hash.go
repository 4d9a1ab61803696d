// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

import (
	"encoding/binary"
	"hash/fnv"
)

// hashString computes the FNV-1a hash of a string.
func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// hashKey returns the 4-byte big-endian encoding of hashString(s). Equal
// inputs always produce byte-identical keys.
func hashKey(s string) []byte {
	return binary.BigEndian.AppendUint32(make([]byte, 0, 4), hashString(s))
}
