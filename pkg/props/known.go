package props

// Well-known property identifiers
const (
	PidTagRecordKey                             uint16 = 0x0FF9
	PidTagDisplayName                           uint16 = 0x3001
	PidTagIpmSubTreeEntryId                     uint16 = 0x35E0
	PidTagIpmWastebasketEntryId                 uint16 = 0x35E3
	PidTagFinderEntryId                         uint16 = 0x35E7
	PidTagContentCount                          uint16 = 0x3602
	PidTagContentUnreadCount                    uint16 = 0x3603
	PidTagSubfolders                            uint16 = 0x360A
	PidTagPstPassword                           uint16 = 0x67FF
	PidTagMessageClass                          uint16 = 0x001A
	PidTagDisplayCc                             uint16 = 0x0E03
	PidTagDisplayTo                             uint16 = 0x0E04
	PidTagMessageDeliveryTime                   uint16 = 0x0E06
	PidTagMessageFlags                          uint16 = 0x0E07
	PidTagMessageSize                           uint16 = 0x0E08
	PidTagMessageStatus                         uint16 = 0x0E17
	PidTagReplItemid                            uint16 = 0x0E30
	PidTagReplChangenum                         uint16 = 0x0E33
	PidTagReplVersionHistory                    uint16 = 0x0E34
	PidTagReplFlags                             uint16 = 0x0E38
	PidTagReplCopiedfromVersionhistory          uint16 = 0x0E3C
	PidTagReplCopiedfromItemid                  uint16 = 0x0E3D
	PidTagItemTemporaryFlags                    uint16 = 0x1097
	PidTagLastModificationTime                  uint16 = 0x3008
	PidTagContainerClass                        uint16 = 0x3613
	PidTagSecureSubmitFlags                     uint16 = 0x65C6
	PidTagPstHiddenCount                        uint16 = 0x6635
	PidTagPstHiddenUnread                       uint16 = 0x6636
	PidTagLtpRowId                              uint16 = 0x67F2
	PidTagLtpRowVer                             uint16 = 0x67F3
	PidTagOfflineAddressBookName                uint16 = 0x6800
	PidTagSendOutlookRecallReport               uint16 = 0x6803
	PidTagOfflineAddressBookTruncatedProperties uint16 = 0x6805
	PidTagViewDescriptorFlags                   uint16 = 0x7003
	PidTagViewDescriptorLinkTo                  uint16 = 0x7004
	PidTagViewDescriptorViewFolder              uint16 = 0x7005
	PidTagViewDescriptorName                    uint16 = 0x7006
	PidTagViewDescriptorVersion                 uint16 = 0x7007
	PidTagImportance                            uint16 = 0x0017
	PidTagSensitivity                           uint16 = 0x0036
	PidTagSubject                               uint16 = 0x0037
	PidTagClientSubmitTime                      uint16 = 0x0039
	PidTagSentRepresentingName                  uint16 = 0x0042
	PidTagMessageToMe                           uint16 = 0x0057
	PidTagMessageCcMe                           uint16 = 0x0058
	PidTagConversationTopic                     uint16 = 0x0070
	PidTagConversationIndex                     uint16 = 0x0071
	PidTagConversationId                        uint16 = 0x3013
	PidTagNameidBucketCount                     uint16 = 0x0001
	PidTagNameidStreamGuid                      uint16 = 0x0002
	PidTagNameidStreamEntry                     uint16 = 0x0003
	PidTagNameidStreamString                    uint16 = 0x0004
	PidTagPstBestBodyProptag                    uint16 = 0x661D
	PidTagPstIpmsubTreeDescendant               uint16 = 0x6705
	PidTagPstSubTreeContainer                   uint16 = 0x6772
	PidTagLtpParentNid                          uint16 = 0x67F1
	PidTagMapiFormComposeCommand                uint16 = 0x682F
	PidTagCreationTime                          uint16 = 0x3007
	PidTagSearchKey                             uint16 = 0x300B
	PidTagSentRepresentingSearchKey             uint16 = 0x003B
	PidTagSubjectPrefix                         uint16 = 0x003D
	PidTagSentRepresentingEntryId               uint16 = 0x0041
	PidTagInternetMessageId                     uint16 = 0x1035
	PidTagHtml                                  uint16 = 0x1013
	PidTagBody                                  uint16 = 0x1000
	PidTagAccessLevel                           uint16 = 0x0FF7
	PidTagAccess                                uint16 = 0x0FF4
	PidTagAttachNumber                          uint16 = 0x0E21
	PidTagRtfInSync                             uint16 = 0x0E1F
	PidTagNormalizedSubject                     uint16 = 0x0E1D
	PidTagHasAttachments                        uint16 = 0x0E1B
	PidTagDisplayBcc                            uint16 = 0x0E02
	PidTagSenderEmailAddress                    uint16 = 0x0C1F
	PidTagSenderAddressType                     uint16 = 0x0C1E
	PidTagSenderSearchKey                       uint16 = 0x0C1D
	PidTagSenderName                            uint16 = 0x0C1A
	PidTagSenderEntryId                         uint16 = 0x0C19
	PidTagTransportMessageHeaders               uint16 = 0x007D
	PidTagSentRepresentingAddressType           uint16 = 0x0064
	PidTagSentRepresentingEmailAddress          uint16 = 0x0065
	PidTagRecipientNumber                       uint16 = 0x6662
	PidTagStoreSupportMask                      uint16 = 0x340D
	PidTagStoreProvider                         uint16 = 0x3414
	PidTagInternetCodepage                      uint16 = 0x3FDE
	PidTagTnefCorrelationKey                    uint16 = 0x007F
	PidTagInternetReturnPath                    uint16 = 0x1046
	PidTagReplyRecipientEntries                 uint16 = 0x004F
	PidTagOriginatorDeliveryReportRequested     uint16 = 0x0023
	PidTagReplyRecipientNames                   uint16 = 0x0050
)

var knownProperties = []Property{
	{PidTagRecordKey, TypeBinary, "RecordKey"},
	{PidTagDisplayName, TypeString, "DisplayName"},
	{PidTagIpmSubTreeEntryId, TypeBinary, "IpmSubTreeEntryId"},
	{PidTagIpmWastebasketEntryId, TypeBinary, "IpmWastebasketEntryId"},
	{PidTagFinderEntryId, TypeBinary, "FinderEntryId"},
	{PidTagContentCount, TypeInteger32, "ContentCount"},
	{PidTagContentUnreadCount, TypeInteger32, "ContentUnreadCount"},
	{PidTagSubfolders, TypeBoolean, "Subfolders"},
	{PidTagPstPassword, TypeInteger32, "PstPassword"},
	{PidTagMessageClass, TypeString, "MessageClass"},
	{PidTagDisplayCc, TypeString, "DisplayCc"},
	{PidTagDisplayTo, TypeString, "DisplayTo"},
	{PidTagMessageDeliveryTime, TypeTime, "MessageDeliveryTime"},
	{PidTagMessageFlags, TypeInteger32, "MessageFlags"},
	{PidTagMessageSize, TypeInteger32, "MessageSize"},
	{PidTagMessageStatus, TypeInteger32, "MessageStatus"},
	{PidTagReplItemid, TypeBinary, "ReplItemid"},
	{PidTagReplChangenum, TypeInteger64, "ReplChangenum"},
	{PidTagReplVersionHistory, TypeBinary, "ReplVersionHistory"},
	{PidTagReplFlags, TypeInteger32, "ReplFlags"},
	{PidTagReplCopiedfromVersionhistory, TypeBinary, "ReplCopiedfromVersionhistory"},
	{PidTagReplCopiedfromItemid, TypeBinary, "ReplCopiedfromItemid"},
	{PidTagItemTemporaryFlags, TypeInteger32, "ItemTemporaryFlags"},
	{PidTagLastModificationTime, TypeTime, "LastModificationTime"},
	{PidTagContainerClass, TypeString, "ContainerClass"},
	{PidTagSecureSubmitFlags, TypeInteger32, "SecureSubmitFlags"},
	{PidTagPstHiddenCount, TypeInteger32, "PstHiddenCount"},
	{PidTagPstHiddenUnread, TypeInteger32, "PstHiddenUnread"},
	{PidTagLtpRowId, TypeInteger32, "LtpRowId"},
	{PidTagLtpRowVer, TypeInteger32, "LtpRowVer"},
	{PidTagOfflineAddressBookName, TypeString, "OfflineAddressBookName"},
	{PidTagSendOutlookRecallReport, TypeBoolean, "SendOutlookRecallReport"},
	{PidTagOfflineAddressBookTruncatedProperties, TypeMultipleInteger32, "OfflineAddressBookTruncatedProperties"},
	{PidTagViewDescriptorFlags, TypeInteger32, "ViewDescriptorFlags"},
	{PidTagViewDescriptorLinkTo, TypeBinary, "ViewDescriptorLinkTo"},
	{PidTagViewDescriptorViewFolder, TypeBinary, "ViewDescriptorViewFolder"},
	{PidTagViewDescriptorName, TypeString, "ViewDescriptorName"},
	{PidTagViewDescriptorVersion, TypeInteger32, "ViewDescriptorVersion"},
	{PidTagImportance, TypeInteger32, "Importance"},
	{PidTagSensitivity, TypeInteger32, "Sensitivity"},
	{PidTagSubject, TypeString, "Subject"},
	{PidTagClientSubmitTime, TypeTime, "ClientSubmitTime"},
	{PidTagSentRepresentingName, TypeString, "SentRepresentingName"},
	{PidTagMessageToMe, TypeBoolean, "MessageToMe"},
	{PidTagMessageCcMe, TypeBoolean, "MessageCcMe"},
	{PidTagConversationTopic, TypeString, "ConversationTopic"},
	{PidTagConversationIndex, TypeBinary, "ConversationIndex"},
	{PidTagConversationId, TypeBinary, "ConversationId"},
	{PidTagNameidBucketCount, TypeInteger32, "NameidBucketCount"},
	{PidTagNameidStreamGuid, TypeBinary, "NameidStreamGuid"},
	{PidTagNameidStreamEntry, TypeBinary, "NameidStreamEntry"},
	{PidTagNameidStreamString, TypeBinary, "NameidStreamString"},
	{PidTagPstBestBodyProptag, TypeInteger32, "PstBestBodyProptag"},
	{PidTagPstIpmsubTreeDescendant, TypeBoolean, "PstIpmsubTreeDescendant"},
	{PidTagPstSubTreeContainer, TypeInteger32, "PstSubTreeContainer"},
	{PidTagLtpParentNid, TypeInteger32, "LtpParentNid"},
	{PidTagMapiFormComposeCommand, TypeString, "MapiFormComposeCommand"},
	{PidTagCreationTime, TypeTime, "CreationTime"},
	{PidTagSearchKey, TypeBinary, "SearchKey"},
	{PidTagSentRepresentingSearchKey, TypeBinary, "SentRepresentingSearchKey"},
	{PidTagSubjectPrefix, TypeString, "SubjectPrefix"},
	{PidTagSentRepresentingEntryId, TypeBinary, "SentRepresentingEntryId"},
	{PidTagInternetMessageId, TypeString, "InternetMessageId"},
	{PidTagHtml, TypeBinary, "Html"},
	{PidTagBody, TypeString, "Body"},
	{PidTagAccessLevel, TypeInteger32, "AccessLevel"},
	{PidTagAccess, TypeInteger32, "Access"},
	{PidTagAttachNumber, TypeInteger32, "AttachNumber"},
	{PidTagRtfInSync, TypeBoolean, "RtfInSync"},
	{PidTagNormalizedSubject, TypeString, "NormalizedSubject"},
	{PidTagHasAttachments, TypeBoolean, "HasAttachments"},
	{PidTagDisplayBcc, TypeString, "DisplayBcc"},
	{PidTagSenderEmailAddress, TypeString, "SenderEmailAddress"},
	{PidTagSenderAddressType, TypeString, "SenderAddressType"},
	{PidTagSenderSearchKey, TypeBinary, "SenderSearchKey"},
	{PidTagSenderName, TypeString, "SenderName"},
	{PidTagSenderEntryId, TypeBinary, "SenderEntryId"},
	{PidTagTransportMessageHeaders, TypeString, "TransportMessageHeaders"},
	{PidTagSentRepresentingAddressType, TypeString, "SentRepresentingAddressType"},
	{PidTagSentRepresentingEmailAddress, TypeString, "SentRepresentingEmailAddress"},
	{PidTagRecipientNumber, TypeInteger32, "RecipientNumber"},
	{PidTagStoreSupportMask, TypeInteger32, "StoreSupportMask"},
	{PidTagStoreProvider, TypeBinary, "StoreProvider"},
	{PidTagInternetCodepage, TypeInteger32, "InternetCodepage"},
	{PidTagTnefCorrelationKey, TypeBinary, "TnefCorrelationKey"},
	{PidTagInternetReturnPath, TypeString, "InternetReturnPath"},
	{PidTagReplyRecipientEntries, TypeBinary, "ReplyRecipientEntries"},
	{PidTagOriginatorDeliveryReportRequested, TypeBoolean, "OriginatorDeliveryReportRequested"},
	{PidTagReplyRecipientNames, TypeString, "ReplyRecipientNames"},
}
