package domain

import apperrors "github.com/spec-kit/helpdesk-core/pkg/util"

// CanViewComment applies the visibility matrix. System comments are
// visible to everyone on the thread; internal notes only to the
// assignee and staff roles; public replies to the comment author and
// anyone with ticket access.
func CanViewComment(user *User, comment *Comment, ticket *Ticket) bool {
	if user == nil || comment == nil || ticket == nil {
		return false
	}
	switch comment.Type {
	case CommentTypeSystem:
		return true
	case CommentTypeInternal:
		if user.Role.IsStaff() {
			return true
		}
		return ticket.AssigneeEmail != nil && user.Email == *ticket.AssigneeEmail
	default:
		if user.Email == comment.AuthorEmail {
			return true
		}
		return CanAccess(user, ticket)
	}
}

// FilterVisibleComments keeps only the comments the user may see, in
// the original order.
func FilterVisibleComments(user *User, comments []Comment, ticket *Ticket) []Comment {
	visible := make([]Comment, 0, len(comments))
	for i := range comments {
		if CanViewComment(user, &comments[i], ticket) {
			visible = append(visible, comments[i])
		}
	}
	return visible
}

// CheckCommentAuthoring validates who may author which comment type.
// System comments never pass; they are created by the service layer
// directly.
func CheckCommentAuthoring(user *User, ticket *Ticket, commentType CommentType) error {
	switch commentType {
	case CommentTypeSystem:
		return apperrors.NewPermissionDenied("system comments cannot be authored")
	case CommentTypeInternal:
		if !user.Role.IsStaff() {
			return apperrors.NewPermissionDenied("internal comments require an agent, admin or manager role")
		}
		return nil
	default:
		if CanAccess(user, ticket) || user.Role.IsStaff() {
			return nil
		}
		return apperrors.NewPermissionDenied("no access to ticket")
	}
}
