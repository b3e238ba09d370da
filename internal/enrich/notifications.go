package enrich

import (
	"context"
	"log/slog"

	"github.com/golangsnmp/mibflat/mib"
)

// resolveNotificationObjects resolves every varbind object name referenced
// by the batch's notifications. Names are unioned first so each is resolved
// once: against the current batch, then through the shared index across all
// loaded modules, with both outcomes memoized. Resolved detail is attached
// to each notification; finally each referenced object's description is
// backfilled from its owning module's source when the source is more
// complete.
func (p *Pipeline) resolveNotificationObjects(ctx context.Context, objs []*mib.Object) {
	referenced := make(map[string]bool)
	for _, obj := range objs {
		if !obj.IsNotification() {
			continue
		}
		for _, name := range obj.NotificationObjects {
			referenced[name] = true
		}
	}
	if len(referenced) == 0 {
		return
	}

	batchByName := make(map[string]*mib.Object, len(objs))
	for _, obj := range objs {
		batchByName[obj.Name] = obj
	}

	details := make(map[string]*mib.ObjectDetail, len(referenced))
	for name := range referenced {
		details[name] = p.resolveObjectDetail(ctx, name, batchByName)
	}

	for name, detail := range details {
		if detail == nil {
			continue
		}
		if src := p.moduleSource(detail.Module); src != nil {
			if fromSource := extractDescription(src, name); len(fromSource) > len(detail.Description) {
				detail.Description = fromSource
			}
		}
	}

	for _, obj := range objs {
		if !obj.IsNotification() || len(obj.NotificationObjects) == 0 {
			continue
		}
		obj.NotificationDetail = make(map[string]*mib.ObjectDetail, len(obj.NotificationObjects))
		for _, name := range obj.NotificationObjects {
			if detail := details[name]; detail != nil {
				obj.NotificationDetail[name] = detail
			}
		}
	}
}

// resolveObjectDetail resolves one referenced object name to its static
// identity. Batch-local objects win; otherwise the shared index is
// consulted with positive and negative memoization.
func (p *Pipeline) resolveObjectDetail(ctx context.Context, name string, batchByName map[string]*mib.Object) *mib.ObjectDetail {
	if obj, ok := batchByName[name]; ok {
		return p.detailFromObject(ctx, obj)
	}

	if detail, memoized := p.index.DetailMemo(name); memoized {
		return detail
	}

	obj, ok := p.index.ObjectByName(name)
	if !ok {
		if p.logEnabled(slog.LevelDebug) {
			p.logger.LogAttrs(ctx, slog.LevelDebug, "varbind object unresolved",
				slog.String("object", name))
		}
		p.index.PutDetailMemo(name, nil)
		return nil
	}

	detail := p.detailFromObject(ctx, obj)
	p.index.PutDetailMemo(name, detail)
	return detail
}

// detailFromObject snapshots an object's identity, resolving nested TC
// metadata when the object's syntax is a named type.
func (p *Pipeline) detailFromObject(ctx context.Context, obj *mib.Object) *mib.ObjectDetail {
	detail := &mib.ObjectDetail{
		Name:        obj.Name,
		OID:         obj.OID,
		Kind:        obj.Kind,
		Module:      obj.Module,
		SyntaxType:  obj.SyntaxType,
		BaseSyntax:  obj.BaseSyntax,
		Access:      obj.Access,
		Status:      obj.Status,
		Description: obj.Description,
		TCName:      obj.TCName,
		TCBaseType:  obj.TCBaseType,
	}

	if detail.TCName == "" && obj.SyntaxType != "" {
		if _, primitive := mib.NormalizeBaseType(obj.SyntaxType); !primitive {
			if tc := p.resolveTC(ctx, obj.SyntaxType, obj.Module, make(map[string]bool)); tc != nil {
				detail.TCName = tc.Name
				detail.TCBaseType = tc.BaseType
				detail.TCDisplayHint = tc.DisplayHint
				if detail.BaseSyntax == "" {
					detail.BaseSyntax = tc.BaseType
				}
			}
		}
	}
	if detail.TCDisplayHint == "" {
		detail.TCDisplayHint = obj.TCDisplayHint
	}
	return detail
}
