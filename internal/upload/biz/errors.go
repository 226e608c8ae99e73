package biz

import "errors"

// 会话相关错误
var (
	ErrSessionNotFound     = errors.New("upload session not found")
	ErrSessionOwnedByOther = errors.New("upload session belongs to another user")
	ErrSessionCompleted    = errors.New("upload session already completed")
	ErrAlreadyCompleted    = errors.New("upload session was already marked completed")
	ErrParamConflict       = errors.New("upload parameters conflict with existing session")
)

// 分片相关错误
var (
	ErrInvalidChunkIndex = errors.New("chunk index out of declared range")
	ErrEmptyChunk        = errors.New("chunk payload is empty")
	ErrChunkMissing      = errors.New("chunk blob missing from temporary storage")
)

// 合并相关错误
var (
	ErrIncomplete        = errors.New("upload is missing chunks")
	ErrIntegrityMismatch = errors.New("assembled file hash does not match declared hash")
	ErrCorruptSession    = errors.New("upload session state is corrupt")
)
