// Package status 定义投递记录与邮件活动的状态枚举及合法迁移表。
package status

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition 表示状态迁移不在迁移表内。
var ErrInvalidTransition = errors.New("invalid status transition")

// Application 是 JobApplication 的状态。
type Application string

const (
	ApplicationPending  Application = "pending"
	ApplicationSent     Application = "sent"
	ApplicationFailed   Application = "failed"
	ApplicationRejected Application = "rejected"
	ApplicationAccepted Application = "accepted"
)

// rejected / accepted 预留给外部更新，投递流程本身从不设置。
var applicationTransitions = map[Application][]Application{
	ApplicationPending: {ApplicationSent, ApplicationFailed, ApplicationRejected, ApplicationAccepted},
	ApplicationSent:    {ApplicationRejected, ApplicationAccepted},
}

// Valid 判断取值是否属于枚举。
func (s Application) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationSent, ApplicationFailed, ApplicationRejected, ApplicationAccepted:
		return true
	}
	return false
}

// CanApplication 判断 from -> to 是否合法。
func CanApplication(from, to Application) bool {
	for _, next := range applicationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckApplication 在迁移非法时返回包装了 ErrInvalidTransition 的错误。
func CheckApplication(from, to Application) error {
	if !CanApplication(from, to) {
		return fmt.Errorf("application %s -> %s: %w", from, to, ErrInvalidTransition)
	}
	return nil
}

// Campaign 是 EmailCampaign 的状态。
type Campaign string

const (
	CampaignDraft     Campaign = "draft"
	CampaignActive    Campaign = "active"
	CampaignCompleted Campaign = "completed"
)

var campaignTransitions = map[Campaign][]Campaign{
	CampaignDraft:  {CampaignActive, CampaignCompleted},
	CampaignActive: {CampaignCompleted},
}

// Valid 判断取值是否属于枚举。
func (s Campaign) Valid() bool {
	switch s {
	case CampaignDraft, CampaignActive, CampaignCompleted:
		return true
	}
	return false
}

// CanCampaign 判断 from -> to 是否合法。
func CanCampaign(from, to Campaign) bool {
	for _, next := range campaignTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckCampaign 在迁移非法时返回包装了 ErrInvalidTransition 的错误。
func CheckCampaign(from, to Campaign) error {
	if !CanCampaign(from, to) {
		return fmt.Errorf("campaign %s -> %s: %w", from, to, ErrInvalidTransition)
	}
	return nil
}
