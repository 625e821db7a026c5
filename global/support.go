package global

import (
	"log"
	"runtime"
)

// ============================================================

func LogCallStack() {
	r := recover()
	if r == nil {
		return
	}
	log.Printf("Panic Recovered! Error:\n%v", r)
	buf := make([]byte, 1024)
	n := runtime.Stack(buf, false)
	log.Printf("Stack trace:\n%s\n", buf[:n])
}

//===================================================================

func LogInfo(lt LogTitle, msg string) {
	LogHandler(LLInformation, lt, msg)
}

func LogWarning(lt LogTitle, msg string) {
	LogHandler(LLWarning, lt, msg)
}

func LogError(lt LogTitle, msg string) {
	LogHandler(LLError, lt, msg)
}

func LogHandler(ll LogLevel, lt LogTitle, msg string) {
	log.Printf("\t%s\t%s\t%s\n", ll.String(), lt.String(), msg)
}

//==================================================

func Filter[T any](items []*T, predicate func(*T) bool) []*T {
	var result []*T
	for _, item := range items {
		if predicate(item) {
			result = append(result, item)
		}
	}
	return result
}

func Map[T1, T2 any](data []T1, mapper func(T1) T2) []T2 {
	o := make([]T2, len(data))

	for i, datum := range data {
		o[i] = mapper(datum)
	}

	return o
}

// Value-level equality of two string maps: same key set, same value per key.
func StringMapsEqual(m1, m2 map[string]string) bool {
	if len(m1) != len(m2) {
		return false
	}
	for k, v := range m1 {
		v2, ok := m2[k]
		if !ok || v != v2 {
			return false
		}
	}
	return true
}

func CloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
