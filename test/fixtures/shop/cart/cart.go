// Package cart is a test fixture with one deliberately failing test.
package cart

// Total sums the item prices.
func Total(prices []int) int {
	sum := 0
	for _, p := range prices {
		sum += p
	}
	return sum
}

// Discount applies a percentage discount. The formula is wrong on purpose.
func Discount(price, percent int) int {
	return price - percent*price/200
}
