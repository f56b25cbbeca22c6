package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"codefolio/internal/featureflags"
	"codefolio/internal/mentions"
	"codefolio/internal/models"
	"codefolio/internal/repository"
)

// liveNotificationsFlag gates the realtime push; notification rows are
// written regardless.
const liveNotificationsFlag = "live_notifications"

// NotificationPublisher pushes a created notification to any live listeners.
// Delivery is best-effort; the persisted row is the contract.
type NotificationPublisher interface {
	PublishUser(ctx context.Context, userID uint, payload []byte) error
}

// NotificationService translates domain events into notification rows and
// serves the inbox. Fan-out failures are logged and swallowed so the
// triggering action never fails because of them.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	followRepo       repository.FollowRepository
	publisher        NotificationPublisher
	flags            *featureflags.Manager
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	publisher NotificationPublisher,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		followRepo:       followRepo,
		publisher:        publisher,
	}
}

// SetFlags installs the feature-flag manager used to gate live delivery.
// A nil manager means always deliver.
func (s *NotificationService) SetFlags(flags *featureflags.Manager) {
	s.flags = flags
}

// NotifyMentions resolves @usernames in text and notifies each matched user.
// Unknown usernames are ignored; the actor never notifies themselves.
func (s *NotificationService) NotifyMentions(ctx context.Context, actorID uint, text string, post *models.Post, commentID, replyID *uint) {
	names := mentions.Extract(text)
	if len(names) == 0 {
		return
	}

	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		s.logFanoutError(ctx, "mention", err)
		return
	}
	users, err := s.userRepo.GetByUsernames(ctx, names)
	if err != nil {
		s.logFanoutError(ctx, "mention", err)
		return
	}

	var batch []models.Notification
	for _, u := range users {
		if u.ID == actorID {
			continue
		}
		batch = append(batch, models.Notification{
			RecipientID:      u.ID,
			SenderID:         actorID,
			Type:             models.NotificationMention,
			Message:          fmt.Sprintf("%s mentioned you in %q", actor.Username, post.Title),
			RelatedPostID:    &post.ID,
			RelatedCommentID: commentID,
			RelatedReplyID:   replyID,
		})
	}
	s.deliverBatch(ctx, "mention", batch)
}

// NotifyComment tells the post author someone commented.
func (s *NotificationService) NotifyComment(ctx context.Context, actorID uint, post *models.Post, commentID uint) {
	if actorID == post.UserID {
		return
	}
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		s.logFanoutError(ctx, "comment", err)
		return
	}
	s.deliver(ctx, "comment", &models.Notification{
		RecipientID:      post.UserID,
		SenderID:         actorID,
		Type:             models.NotificationComment,
		Message:          fmt.Sprintf("%s commented on %q", actor.Username, post.Title),
		RelatedPostID:    &post.ID,
		RelatedCommentID: &commentID,
	})
}

// NotifyReply tells the original commenter someone replied. Replies carry the
// comment notification type.
func (s *NotificationService) NotifyReply(ctx context.Context, actorID uint, post *models.Post, commentOwnerID, commentID, replyID uint) {
	if actorID == commentOwnerID {
		return
	}
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		s.logFanoutError(ctx, "reply", err)
		return
	}
	s.deliver(ctx, "reply", &models.Notification{
		RecipientID:      commentOwnerID,
		SenderID:         actorID,
		Type:             models.NotificationComment,
		Message:          fmt.Sprintf("%s replied to your comment on %q", actor.Username, post.Title),
		RelatedPostID:    &post.ID,
		RelatedCommentID: &commentID,
		RelatedReplyID:   &replyID,
	})
}

// NotifyUpvote tells the post author about a fresh upvote.
func (s *NotificationService) NotifyUpvote(ctx context.Context, actorID uint, post *models.Post) {
	if actorID == post.UserID {
		return
	}
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		s.logFanoutError(ctx, "like", err)
		return
	}
	s.deliver(ctx, "like", &models.Notification{
		RecipientID:   post.UserID,
		SenderID:      actorID,
		Type:          models.NotificationLike,
		Message:       fmt.Sprintf("%s upvoted %q", actor.Username, post.Title),
		RelatedPostID: &post.ID,
	})
}

// NotifyFollow tells the followee about their new follower.
func (s *NotificationService) NotifyFollow(ctx context.Context, actorID, followeeID uint) {
	if actorID == followeeID {
		return
	}
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		s.logFanoutError(ctx, "follow", err)
		return
	}
	s.deliver(ctx, "follow", &models.Notification{
		RecipientID: followeeID,
		SenderID:    actorID,
		Type:        models.NotificationFollow,
		Message:     fmt.Sprintf("%s started following you", actor.Username),
	})
}

// NotifyNewPost broadcasts a fresh post to every follower of the author in
// one bulk insert. The broadcast reuses the follow notification type.
func (s *NotificationService) NotifyNewPost(ctx context.Context, author *models.User, post *models.Post) {
	followerIDs, err := s.followRepo.ListFollowerIDs(ctx, author.ID)
	if err != nil {
		s.logFanoutError(ctx, "new_post", err)
		return
	}
	if len(followerIDs) == 0 {
		return
	}

	batch := make([]models.Notification, 0, len(followerIDs))
	for _, id := range followerIDs {
		if id == author.ID {
			continue
		}
		batch = append(batch, models.Notification{
			RecipientID:   id,
			SenderID:      author.ID,
			Type:          models.NotificationFollow,
			Message:       fmt.Sprintf("%s published a new post: %q", author.Username, post.Title),
			RelatedPostID: &post.ID,
		})
	}
	s.deliverBatch(ctx, "new_post", batch)
}

func (s *NotificationService) deliver(ctx context.Context, event string, n *models.Notification) {
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logFanoutError(ctx, event, err)
		return
	}
	s.publish(ctx, n)
}

func (s *NotificationService) deliverBatch(ctx context.Context, event string, batch []models.Notification) {
	if len(batch) == 0 {
		return
	}
	if err := s.notificationRepo.CreateBatch(ctx, batch); err != nil {
		s.logFanoutError(ctx, event, err)
		return
	}
	for i := range batch {
		s.publish(ctx, &batch[i])
	}
}

func (s *NotificationService) publish(ctx context.Context, n *models.Notification) {
	if s.publisher == nil {
		return
	}
	if s.flags != nil && !s.flags.Enabled(liveNotificationsFlag, n.RecipientID) {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return
	}
	if err := s.publisher.PublishUser(ctx, n.RecipientID, payload); err != nil {
		slog.WarnContext(ctx, "notification publish failed",
			"recipient_id", n.RecipientID, "type", n.Type, "error", err)
	}
}

func (s *NotificationService) logFanoutError(ctx context.Context, event string, err error) {
	slog.ErrorContext(ctx, "notification fan-out failed", "event", event, "error", err)
}

// Inbox operations, ownership enforced by the repository.

func (s *NotificationService) List(ctx context.Context, recipientID uint, limit, offset int) ([]*models.Notification, error) {
	return s.notificationRepo.ListByRecipient(ctx, recipientID, limit, offset)
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	return s.notificationRepo.UnreadCount(ctx, recipientID)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID uint) error {
	return s.notificationRepo.MarkRead(ctx, id, recipientID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID uint) error {
	return s.notificationRepo.MarkAllRead(ctx, recipientID)
}

func (s *NotificationService) Delete(ctx context.Context, id, recipientID uint) error {
	return s.notificationRepo.Delete(ctx, id, recipientID)
}

func (s *NotificationService) DeleteAll(ctx context.Context, recipientID uint) error {
	return s.notificationRepo.DeleteAll(ctx, recipientID)
}
