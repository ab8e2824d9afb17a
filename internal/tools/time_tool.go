package tools

import (
	"context"
	"strconv"
	"time"
)

// CurrentTimeTool returns the current time
type CurrentTimeTool struct {
	now func() time.Time
}

type timeResult struct {
	Status string  `json:"status"`
	Output string  `json:"output"`
	Error  *string `json:"error"`
}

func NewCurrentTimeTool(Deps) (Tool, error) {
	return &CurrentTimeTool{now: time.Now}, nil
}

func (c *CurrentTimeTool) Name() string {
	return "current_time"
}

func (c *CurrentTimeTool) Schema() Schema {
	return Schema{
		Name:        c.Name(),
		Description: "Get the current date and time",
		Params: []Param{
			{
				Name:        "format",
				Type:        TypeString,
				Description: "Time format. Common formats: 'iso' (default), 'human', 'date', 'time', 'unix', or Go format string like '2006-01-02 15:04:05'",
			},
		},
	}
}

func (c *CurrentTimeTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	now := c.now()
	layout := time.RFC3339

	switch format := stringArg(args, "format", "iso"); format {
	case "iso", "":
	case "human":
		layout = "January 2, 2006 at 3:04 PM MST"
	case "date":
		layout = time.DateOnly
	case "time":
		layout = time.TimeOnly
	case "unix":
		return encodeResult(timeResult{Status: "success", Output: strconv.FormatInt(now.Unix(), 10)})
	default:
		layout = format
	}

	return encodeResult(timeResult{Status: "success", Output: now.Format(layout)})
}
