package practice

import "testing"

func TestLooksLikeCode(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"valid solution", "class Solution:\n    def twoSum(self, nums, target):\n        return []", true},
		{"short fragment", "def f():", false},
		{"plain question", "how should I approach this problem with a hash map?", false},
		{"question mentioning nothing", "please explain recursion", false},
		{"broken code with signals", "def solve(nums:\n    return nums[0", true},
		{"loop snippet", "for i in range(10):\n    print(i)", true},
		{"prose with if word", "if you ask me, this task is hard and confusing", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksLikeCode(tt.text); got != tt.want {
				t.Errorf("LooksLikeCode(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
