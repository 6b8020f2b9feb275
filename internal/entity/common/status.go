package common

// RecordStatus 表示生成请求（record）的派发状态。
// 只反映向第三方平台发起请求是否成功，与最终生成结果无关。
type RecordStatus string

const (
	RecordStatusWaiting RecordStatus = "waiting"
	RecordStatusFail    RecordStatus = "fail"
	RecordStatusSuccess RecordStatus = "success"
)

// GenerationStatus 表示第三方任务（task）的生成状态。
type GenerationStatus string

const (
	GenerationStatusWaiting    GenerationStatus = "waiting"
	GenerationStatusProcessing GenerationStatus = "processing"
	GenerationStatusSucceed    GenerationStatus = "succeed"
	GenerationStatusFailed     GenerationStatus = "failed"
	GenerationStatusUnknown    GenerationStatus = "unknown"
)

// IsTerminal 检查状态是否为终态（succeed/failed），终态不再变化。
func (s GenerationStatus) IsTerminal() bool {
	return s == GenerationStatusSucceed || s == GenerationStatusFailed
}

// 媒体类型
const (
	MediaKindImage = "image"
	MediaKindVideo = "video"
)
