// Package i18n provides the UI message tables and default system prompts
// for the supported display languages. These strings are display-only and
// never influence parsing logic.
package i18n

// Language selects the message table and default system prompt.
type Language string

const (
	Chinese Language = "cn"
	English Language = "en"
)

// ParseLanguage maps a user-supplied language code to a Language.
// Anything that is not recognizably English falls back to Chinese,
// matching the upstream model's primary training language.
func ParseLanguage(s string) Language {
	switch s {
	case "en", "En", "EN", "english", "English":
		return English
	default:
		return Chinese
	}
}

var messagesZH = map[string]string{
	"thinking":                  "思考过程",
	"action":                    "执行动作",
	"task_completed":            "任务完成",
	"done":                      "完成",
	"starting_task":             "开始执行任务",
	"final_result":              "最终结果",
	"task_result":               "任务结果",
	"confirmation_required":     "需要确认",
	"continue_prompt":           "是否继续？(y/n)",
	"manual_operation_required": "需要人工操作",
	"manual_operation_hint":     "请手动完成操作...",
	"press_enter_when_done":     "完成后按回车继续",
	"connection_failed":         "连接失败",
	"connection_successful":     "连接成功",
	"step":                      "步骤",
	"task":                      "任务",
	"result":                    "结果",
	"performance_metrics":       "性能指标",
	"time_to_first_token":       "首 Token 延迟 (TTFT)",
	"time_to_thinking_end":      "思考完成延迟",
	"total_inference_time":      "总推理时间",
}

var messagesEN = map[string]string{
	"thinking":                  "Thinking",
	"action":                    "Action",
	"task_completed":            "Task Completed",
	"done":                      "Done",
	"starting_task":             "Starting task",
	"final_result":              "Final Result",
	"task_result":               "Task Result",
	"confirmation_required":     "Confirmation Required",
	"continue_prompt":           "Continue? (y/n)",
	"manual_operation_required": "Manual Operation Required",
	"manual_operation_hint":     "Please complete the operation manually...",
	"press_enter_when_done":     "Press Enter when done",
	"connection_failed":         "Connection Failed",
	"connection_successful":     "Connection Successful",
	"step":                      "Step",
	"task":                      "Task",
	"result":                    "Result",
	"performance_metrics":       "Performance Metrics",
	"time_to_first_token":       "Time to First Token (TTFT)",
	"time_to_thinking_end":      "Time to Thinking End",
	"total_inference_time":      "Total Inference Time",
}

// Messages returns the full message table for a language.
func Messages(lang Language) map[string]string {
	if lang == English {
		return messagesEN
	}
	return messagesZH
}

// Get returns a single message by key, falling back to the key itself when
// the table has no entry so callers always get something printable.
func Get(key string, lang Language) string {
	if msg, ok := Messages(lang)[key]; ok {
		return msg
	}
	return key
}
