//go:build !race

package taskflow

func passwordHashCost() int {
	return 14
}
