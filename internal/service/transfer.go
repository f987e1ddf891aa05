package service

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Site-21/organ-painter/internal/codec"
)

// TransferService 负责会话的导出/导入编排。
// 解析与校验在 codec 包，原子替换在 SessionService；
// 导入失败时会话保持原样。
type TransferService struct {
	session *SessionService
}

// NewTransferService 创建 TransferService 实例。
func NewTransferService(session *SessionService) *TransferService {
	if session == nil {
		panic("SessionService cannot be nil for TransferService")
	}
	return &TransferService{session: session}
}

// Export 序列化当前会话，返回文件内容和默认文件名 <layerName>.txt。
func (t *TransferService) Export() ([]byte, string, error) {
	desc, grid := t.session.Layer()
	logCtx := logrus.WithFields(logrus.Fields{
		"name":   desc.Name,
		"width":  desc.Width,
		"height": desc.Height,
	})

	data, err := codec.Export(desc, grid)
	if err != nil {
		logCtx.WithError(err).Error("Failed to export layer")
		return nil, "", fmt.Errorf("%w: %v", ErrInternalServer, err)
	}

	logCtx.WithField("bytes", len(data)).Info("Layer exported")
	return data, codec.FileName(desc.Name), nil
}

// Import 解析字节流并整体替换会话的描述符与网格。
// 解析或校验失败时原样返回 codec 的业务错误，会话不被触碰。
// 按条目跳过的异常（越界坐标、未知材质）汇总在返回的 report 中。
func (t *TransferService) Import(data []byte) (codec.ImportReport, error) {
	logCtx := logrus.WithField("bytes", len(data))

	desc, grid, report, err := codec.Import(data)
	if err != nil {
		if errors.Is(err, codec.ErrNoPayloadFound) || errors.Is(err, codec.ErrMalformedPayload) {
			logCtx.WithError(err).Warn("Import rejected, session unchanged")
			return report, err
		}
		logCtx.WithError(err).Error("Unexpected import failure")
		return report, fmt.Errorf("%w: %v", ErrInternalServer, err)
	}

	if report.Skipped() > 0 {
		logCtx.WithFields(logrus.Fields{
			"skipped_out_of_range": report.SkippedOutOfRange,
			"skipped_unknown_kind": report.SkippedUnknownKind,
			"slots_applied":        report.SlotsApplied,
		}).Warn("Import completed with skipped slot entries")
	}

	t.session.ReplaceLayer(desc, grid)
	logCtx.WithFields(logrus.Fields{
		"name":          desc.Name,
		"width":         desc.Width,
		"height":        desc.Height,
		"slots_applied": report.SlotsApplied,
	}).Info("Layer imported")
	return report, nil
}
