package output_test

import (
	"fmt"

	"github.com/blackwell-systems/setupvault/internal/output"
)

// Example showing the summary printed after a seed run
func ExampleRenderSummary() {
	fmt.Print(output.RenderSummary("/home/dev/.setupvault", 121, 12, 2))
	// Output:
	// Seeded vault at /home/dev/.setupvault
	// Entries: 121
	// Inbox: 12
	// Snoozed: 2
}

// Example showing how to drive a progress bar from the seeder callback
func ExampleProgressBar() {
	progress := output.NewProgress(0, "Writing entries")

	total := 121
	for done := 1; done <= total; done++ {
		progress.Update(done, total)
	}

	progress.Finish()
}
