package utils

import (
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"
)

// Base58 encoding/decoding utilities

// EncodeBase58 encodes bytes to base58 string
func EncodeBase58(data []byte) string {
	return base58.Encode(data)
}

// DecodeBase58 decodes base58 string to bytes
func DecodeBase58(encoded string) ([]byte, error) {
	return base58.Decode(encoded)
}

// Binary encoding utilities for instruction data

// EncodeU16LE encodes uint16 to little-endian bytes
func EncodeU16LE(value uint16) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, value)
	return buf
}

// EncodeU64LE encodes uint64 to little-endian bytes
func EncodeU64LE(value uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, value)
	return buf
}

// DecodeU64LE decodes uint64 from little-endian bytes
func DecodeU64LE(data []byte) (uint64, error) {
	if len(data) < 8 {
		return 0, fmt.Errorf("insufficient data to decode u64")
	}
	return binary.LittleEndian.Uint64(data), nil
}

// Validation utilities

// IsValidSolanaAddress checks if string is a valid Solana address
func IsValidSolanaAddress(address string) bool {
	decoded, err := base58.Decode(address)
	return err == nil && len(decoded) == 32
}

// IsValidSolanaSignature checks if string is a valid Solana signature
func IsValidSolanaSignature(signature string) bool {
	decoded, err := base58.Decode(signature)
	return err == nil && len(decoded) == 64
}

// Utility functions for working with instruction data

// ConcatBytes concatenates multiple byte slices
func ConcatBytes(slices ...[]byte) []byte {
	totalLen := 0
	for _, slice := range slices {
		totalLen += len(slice)
	}

	result := make([]byte, totalLen)
	offset := 0
	for _, slice := range slices {
		copy(result[offset:], slice)
		offset += len(slice)
	}

	return result
}
