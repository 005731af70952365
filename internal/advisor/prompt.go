package advisor

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/bizdata-cli/internal/analysis"
)

// MaxWords is the response length the advisor is asked to stay under.
const MaxWords = 180

// BuildSystemPrompt renders the consultant instruction for s.
func BuildSystemPrompt(s Summary) string {
	var b strings.Builder
	b.WriteString("You are a world-class Business Consultant for small business owners.\n")
	b.WriteString("Your tone should be helpful, encouraging and non-technical. Use simple business terms.\n\n")

	b.WriteString("KEY BUSINESS DATA:\n")
	b.WriteString(fmt.Sprintf("- Total Sales: %s\n", analysis.FormatMoney(s.TotalRevenue)))
	b.WriteString(fmt.Sprintf("- Average Transaction: %s\n", analysis.FormatMoney(s.AverageTransaction)))
	b.WriteString(fmt.Sprintf("- Customers: %d\n", s.CustomerCount))
	b.WriteString(fmt.Sprintf("- Records: %d rows of %s\n", s.RecordCount, strings.Join(s.Columns, ", ")))
	b.WriteString(fmt.Sprintf("- Highest Growth Period: %s\n", s.HighestGrowth))
	b.WriteString(fmt.Sprintf("- Weekly Patterns: %s\n", s.WeeklyPattern()))
	b.WriteString(fmt.Sprintf("- Top Performance: %s\n", orNone(s.TopSegments())))
	b.WriteString(fmt.Sprintf("- Monthly Performance List: %s\n\n", orNone(s.Trend())))

	b.WriteString("YOUR SPECIFIC TASKS:\n")
	b.WriteString("1. Tell the owner which specific month had the highest growth and explain if weekends are outperforming weekdays based on the data.\n")
	b.WriteString(fmt.Sprintf("2. If you see any negative growth in the data (Negative Growth Detected: %t), suggest a basic marketing \"sale\" or \"bundle\" strategy for the upcoming month to counter historical slow periods.\n", s.HasNegativeGrowth))
	b.WriteString("3. Keep advice actionable and non-technical. Reference specific numbers from the data provided.\n")
	b.WriteString(fmt.Sprintf("4. Keep responses under %d words.\n", MaxWords))
	b.WriteString("5. If the user asks non-business questions, refocus them on their sales trends and growth opportunities.\n")
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
